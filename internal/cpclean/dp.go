package cpclean

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Both tables hold coefficients of the generating function
// ∏(alpha_i + beta_i·x) truncated to width terms. The suffix table row i
// covers rows i..n-1 (row n is the identity), the prefix table row i covers
// rows 0..i-1 (row 0 is the identity).
//
// A rebuild reports false ("small") once the mass kept inside the truncated
// table drops under eps/n; such a scan step is skipped.

func resetTable(dst *mat.Dense, rows, width int) {
	dst.Reset()
	dst.ReuseAs(rows, width)
}

func suffixTable(dst *mat.Dense, ab []AlphaBeta, width int, eps float64) bool {
	n := len(ab)
	resetTable(dst, n+1, width)
	dst.Set(n, 0, 1)

	last := width - 1
	kept := 1.0
	for i := n - 1; i >= 0; i-- {
		next, cur := dst.RawRowView(i+1), dst.RawRowView(i)
		floats.ScaleTo(cur, ab[i].Alpha, next)
		if last > 0 {
			floats.AddScaled(cur[1:], ab[i].Beta, next[:last])
		}
		kept -= next[last] * ab[i].Beta
		if kept < eps/float64(n) {
			return false
		}
	}
	return true
}

func prefixTable(dst *mat.Dense, ab []AlphaBeta, width int, eps float64) bool {
	n := len(ab)
	resetTable(dst, n+1, width)
	dst.Set(0, 0, 1)

	last := width - 1
	kept := 1.0
	for i := 1; i <= n; i++ {
		prev, cur := dst.RawRowView(i-1), dst.RawRowView(i)
		floats.ScaleTo(cur, ab[i-1].Alpha, prev)
		if last > 0 {
			floats.AddScaled(cur[1:], ab[i-1].Beta, prev[:last])
		}
		kept -= prev[last] * ab[i-1].Beta
		if kept < eps/float64(n) {
			return false
		}
	}
	return true
}

// worldsWithout counts, from a class's suffix and prefix tables, the mass in
// which exactly nBeta of the class's rows other than row sit above the
// threshold.
func worldsWithout(suffix, prefix *mat.Dense, nBeta, row, n int) float64 {
	if nBeta < 0 {
		return 0
	}
	switch row {
	case n - 1:
		return prefix.At(row, nBeta)
	case 0:
		return suffix.At(1, nBeta)
	}
	after, before := suffix.RawRowView(row+1), prefix.RawRowView(row)
	total := 0.0
	for l := 0; l <= nBeta; l++ {
		total += after[l] * before[nBeta-l]
	}
	return total
}
