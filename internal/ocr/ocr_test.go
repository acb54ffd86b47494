package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeEngine struct {
	page   entity.Page
	err    error
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(context.Context, []byte) (entity.Page, error) {
	f.calls.Add(1)
	return f.page, f.err
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	run   func(name string, args []string) ([]byte, []byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.run(name, args)
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1240\t1754\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t36\t92\t582\t68\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t36\t92\t120\t20\t96.5\t7891000261965\n" +
	"5\t1\t1\t1\t1\t2\t200\t94\t80\t18\t91\tLEITE\n" +
	"5\t1\t1\t1\t1\t3\t300\t94\t10\t18\t-1\t \n" +
	"5\t1\t1\t1\t1\t4\t900\t93\t60\t19\t88\t34,99\n"

func TestParseTSV(t *testing.T) {
	page, err := ParseTSV([]byte(sampleTSV))
	require.NoError(t, err)
	assert.Equal(t, 1240.0, page.Width)
	assert.Equal(t, 1754.0, page.Height)
	assert.Equal(t, entity.UnitPixel, page.Unit)
	require.Len(t, page.Detections, 3)

	d := page.Detections[0]
	assert.Equal(t, "7891000261965", d.Text)
	assert.Equal(t, 36.0, d.MinX)
	assert.Equal(t, 156.0, d.MaxX)
	assert.Equal(t, 92.0, d.MinY)
	assert.Equal(t, 112.0, d.MaxY)
	assert.InDelta(t, 0.965, d.Confidence, 1e-9)
	assert.Equal(t, "34,99", page.Detections[2].Text)
}

func TestTesseractRunsTSV(t *testing.T) {
	r := &fakeRunner{run: func(name string, args []string) ([]byte, []byte, error) {
		return []byte(sampleTSV), nil, nil
	}}
	eng := NewTesseract(Config{TessdataDir: "/td"}, r, slog.Default())
	page, err := eng.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Len(t, page.Detections, 3)

	require.Len(t, r.calls, 1)
	call := strings.Join(r.calls[0], " ")
	assert.True(t, strings.HasPrefix(call, "tesseract "))
	assert.Contains(t, call, "stdout -l por --psm 6 --tessdata-dir /td tsv")
}

func TestTesseractFailure(t *testing.T) {
	r := &fakeRunner{run: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file"), errors.New("exit status 1")
	}}
	_, err := NewTesseract(Config{}, r, nil).Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
}

func TestHandleCreatesEngineOnce(t *testing.T) {
	eng := &fakeEngine{page: entity.Page{Detections: []entity.Detection{{Text: "A", Confidence: 0.9}}}}
	var built atomic.Int32
	h := NewHandle(Config{MaxConcurrent: 2}, nil, WithFactory(func(Config, Runner, *slog.Logger) (Engine, error) {
		built.Add(1)
		return eng, nil
	}))
	img := pngBytes(t, 40, 30)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := h.Recognize(context.Background(), img)
			assert.NoError(t, err)
			assert.Equal(t, 40.0, page.Width, "width from probe")
			assert.Equal(t, 30.0, page.Height)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), built.Load())
	assert.Equal(t, int32(8), eng.calls.Load())

	require.NoError(t, h.Close())
	assert.True(t, eng.closed.Load())
}

func TestHandleRetriesFailedInit(t *testing.T) {
	var attempts atomic.Int32
	eng := &fakeEngine{}
	h := NewHandle(Config{}, nil, WithFactory(func(Config, Runner, *slog.Logger) (Engine, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("tessdata missing")
		}
		return eng, nil
	}))
	img := pngBytes(t, 10, 10)

	_, err := h.Recognize(context.Background(), img)
	require.Error(t, err)
	_, err = h.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestHandleDisabled(t *testing.T) {
	h := NewHandle(Config{Engine: EngineNone}, nil)
	assert.False(t, h.Enabled())
	_, err := h.Recognize(context.Background(), pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = h.RecognizePDF(context.Background(), []byte("%PDF"))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestHandleRejectsNonImage(t *testing.T) {
	eng := &fakeEngine{}
	h := NewHandle(Config{}, nil, WithEngine(eng))
	_, err := h.Recognize(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, common.ErrMalformed)
	assert.Zero(t, eng.calls.Load())
}

func TestHandleMinConfidence(t *testing.T) {
	eng := &fakeEngine{page: entity.Page{Detections: []entity.Detection{
		{Text: "keep", Confidence: 0.8},
		{Text: "drop", Confidence: 0.2},
	}}}
	h := NewHandle(Config{MinConfidence: 0.5}, nil, WithEngine(eng))
	page, err := h.Recognize(context.Background(), pngBytes(t, 10, 10))
	require.NoError(t, err)
	require.Len(t, page.Detections, 1)
	assert.Equal(t, "keep", page.Detections[0].Text)
	assert.InDelta(t, 0.8, MeanConfidence(page), 1e-9)
}

func TestRecognizePDF(t *testing.T) {
	img := pngBytes(t, 20, 20)
	r := &fakeRunner{run: func(name string, args []string) ([]byte, []byte, error) {
		prefix := args[len(args)-1]
		for _, n := range []string{"1", "2"} {
			if err := os.WriteFile(prefix+"-"+n+".png", img, 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}}
	eng := &fakeEngine{page: entity.Page{Detections: []entity.Detection{{Text: "X"}}}}
	h := NewHandle(Config{Pdftoppm: "pdftoppm", DPI: 150, MaxPages: 5}, nil, WithRunner(r), WithEngine(eng))

	pages, err := h.RecognizePDF(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"pdftoppm", "-r", "150", "-png", "-l", "5"}, r.calls[0][:6])
}

func TestProbe(t *testing.T) {
	info, err := Probe(pngBytes(t, 12, 7))
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{Format: "png", Width: 12, Height: 7}, info)

	_, err = Probe(nil)
	assert.ErrorIs(t, err, common.ErrMalformed)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(common.OCRConfig{Engine: EngineNone, Lang: "por+eng", DPI: 200, MaxPages: 3})
	assert.Equal(t, EngineNone, cfg.Engine)
	assert.Equal(t, "por+eng", cfg.Lang)
	assert.Equal(t, 200, cfg.DPI)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.False(t, NewHandle(cfg, nil).Enabled())

	d := ConfigFrom(common.OCRConfig{}).withDefaults()
	assert.Equal(t, EngineTesseract, d.Engine)
	assert.Equal(t, 300, d.DPI)
}
