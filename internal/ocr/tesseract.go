package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// tsvWordLevel is the TSV level of a single word.
const tsvWordLevel = 5

// Tesseract drives the tesseract CLI in TSV mode.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewTesseract builds the CLI engine.
func NewTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Tesseract{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (t *Tesseract) Name() string { return EngineTesseract }

func (t *Tesseract) Close() error { return nil }

// Recognize writes the image to a temp file and parses the TSV output.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (entity.Page, error) {
	f, err := os.CreateTemp("", "agiliza-ocr-*")
	if err != nil {
		return entity.Page{}, err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil {
			t.logger.Warn("ocr.tempfile.remove_failed", "path", f.Name(), "error", err)
		}
	}()
	if _, err := f.Write(image); err != nil {
		_ = f.Close()
		return entity.Page{}, err
	}
	if err := f.Close(); err != nil {
		return entity.Page{}, err
	}

	// tesseract <file> stdout -l <lang> --psm <n> [--tessdata-dir d] tsv
	args := []string{f.Name(), "stdout", "-l", t.cfg.Lang, "--psm", strconv.Itoa(t.cfg.PSM)}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return entity.Page{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return ParseTSV(out)
}

// ParseTSV reads tesseract TSV output. The page row gives the dimensions,
// word rows become detections. Rows with conf -1 or blank text are skipped.
//
// Columns: level page_num block_num par_num line_num word_num left top width height conf text
func ParseTSV(out []byte) (entity.Page, error) {
	var page entity.Page
	page.Unit = entity.UnitPixel
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			first = false
			if strings.HasPrefix(line, "level") {
				continue
			}
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		level, err := strconv.Atoi(cols[0])
		if err != nil {
			continue
		}
		left, _ := strconv.ParseFloat(cols[6], 64)
		top, _ := strconv.ParseFloat(cols[7], 64)
		width, _ := strconv.ParseFloat(cols[8], 64)
		height, _ := strconv.ParseFloat(cols[9], 64)

		if level == 1 {
			page.Width, page.Height = width, height
			continue
		}
		if level != tsvWordLevel {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		conf, err := strconv.ParseFloat(cols[10], 64)
		if text == "" || err != nil || conf < 0 {
			continue
		}
		page.Detections = append(page.Detections, entity.Detection{
			Text:       text,
			MinX:       left,
			MinY:       top,
			MaxX:       left + width,
			MaxY:       top + height,
			Confidence: conf / 100,
		})
	}
	if err := sc.Err(); err != nil {
		return entity.Page{}, fmt.Errorf("read tsv: %w", err)
	}
	return page, nil
}
