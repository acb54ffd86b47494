package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Rasterize renders every page of a PDF to PNG through pdftoppm.
func Rasterize(ctx context.Context, runner Runner, cfg Config, pdf []byte) ([][]byte, error) {
	cfg = cfg.withDefaults()
	tmpDir, err := os.MkdirTemp("", "agiliza-pp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, err
	}
	prefix := filepath.Join(tmpDir, "page")

	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(cfg.DPI), "-png"}
	if cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := runner.Run(ctx, cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers to a common width, so names sort in page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if cfg.MaxPages > 0 && len(matches) > cfg.MaxPages {
		matches = matches[:cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}
	images := make([][]byte, 0, len(matches))
	for _, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		images = append(images, b)
	}
	return images, nil
}
