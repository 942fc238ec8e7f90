package problem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZstdSuffix marks files stored zstd-compressed.
const ZstdSuffix = ".zst"

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ZstdSuffix)
}

// Load reads a Problem from path.
func Load(path string) (*Problem, error) {
	var p Problem
	if err := readFile(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadReport reads a Report from path.
func LoadReport(path string) (*Report, error) {
	var r Report
	if err := readFile(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes v as JSON to path, zstd-compressed when path ends in .zst.
func Save(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, v, isCompressed(path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func readFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := Decode(f, v, isCompressed(path)); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Decode unmarshals JSON from r into v.
func Decode(r io.Reader, v any, compressed bool) error {
	if compressed {
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		r = decoder
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

// Encode marshals v as JSON to w.
func Encode(w io.Writer, v any, compressed bool) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	if compressed {
		var buf bytes.Buffer
		encoder, err := zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		if _, err := encoder.Write(data); err != nil {
			return fmt.Errorf("failed to compress: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to finalize compression: %w", err)
		}
		log.Trace().Int("original_size", len(data)).Int("compressed_size", buf.Len()).Msg("document compressed")
		data = buf.Bytes()
	}

	_, err = w.Write(data)
	return err
}
