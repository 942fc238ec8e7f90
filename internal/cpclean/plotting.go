package cpclean

import (
	"fmt"
	"io"
	"strings"
)

const maxBarWidth = 50

// PlotEntropyCurve renders, one bar per iteration, the average entropy and
// the certified share of a run.
func PlotEntropyCurve(w io.Writer, iters []Iteration, title string) {
	if len(iters) == 0 {
		fmt.Fprintf(w, "\n%s: no iterations\n", title)
		return
	}

	minH, maxH := iters[0].AvgEntropy, iters[0].AvgEntropy
	for _, it := range iters[1:] {
		minH = min(minH, it.AvgEntropy)
		maxH = max(maxH, it.AvgEntropy)
	}

	fmt.Fprintf(w, "\n%s (Terminal Plot - Average Entropy):\n", title)
	fmt.Fprintln(w, "Iter | Row    | Certified | Bar Chart")
	fmt.Fprintln(w, "-----|--------|-----------|"+strings.Repeat("-", maxBarWidth))

	for _, it := range iters {
		var barWidth int
		if maxH != minH {
			barWidth = int((it.AvgEntropy - minH) / (maxH - minH) * float64(maxBarWidth))
		} else {
			barWidth = maxBarWidth / 2
		}

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		row := "-"
		if it.Selected >= 0 {
			row = fmt.Sprint(it.Selected)
		}
		fmt.Fprintf(w, "%4d | %6s | %8.2f%% | %s (%.4f)\n", it.Iter, row, 100*it.PercentCertified, bar, it.AvgEntropy)
	}

	fmt.Fprintf(w, "\nScale: Min=%.6f, Max=%.6f\n", minH, maxH)
	fmt.Fprintf(w, "Bar width represents relative entropy (0 to %d chars)\n", maxBarWidth)
}
