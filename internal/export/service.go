package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/izabele-1801/agiliza-backend/internal/assemble"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
)

// Mode selects the output column set.
type Mode string

const (
	// ModeWinthor leaves prices blank; TOTAL carries the vendor total when known.
	ModeWinthor Mode = "winthor"
	// ModePlanilha adds the unit price and the computed line total.
	ModePlanilha Mode = "planilha"
)

// Modes lists the accepted modes, default first.
var Modes = []Mode{ModeWinthor, ModePlanilha}

// ParseMode maps a form value to a Mode. Unknown values fall back to winthor.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePlanilha:
		return ModePlanilha
	default:
		return ModeWinthor
	}
}

// Columns returns the header row for a mode.
func (m Mode) Columns() []string {
	base := []string{"PEDIDO", "CODCLI", "CNPJ", "EAN", "DESCRICAO", "QTDE"}
	if m == ModePlanilha {
		return append(base, "PREÇO UNIT.", "TOTAL LIQ")
	}
	return append(base, "TOTAL")
}

// ContentType is the media type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service renders canonical records as the order workbook.
type Service struct {
	sheet  string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewService(cfg common.ExportConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{sheet: cfg.SheetName, prefix: cfg.FilenamePrefix, logger: logger, now: time.Now}
	if s.sheet == "" {
		s.sheet = "Pedido"
	}
	if s.prefix == "" {
		s.prefix = "AgilizaConverter"
	}
	return s
}

// Filename is the attachment name, "<prefix>dd.mm.yyyy.xlsx".
func (s *Service) Filename() string {
	return s.prefix + s.now().Format("02.01.2006") + ".xlsx"
}

// WriteXLSX returns the workbook bytes for records in the given mode.
func (s *Service) WriteXLSX(ctx context.Context, records []entity.CanonicalRecord, mode Mode) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range mode.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(s.sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			if v == nil {
				return
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(s.sheet, cell, v)
		}

		// Identifiers are written as text so leading zeros survive.
		write(1, r.OrderNumber)
		write(2, "")
		write(3, r.TaxID)
		write(4, r.ProductID)
		write(5, r.Description)

		switch mode {
		case ModePlanilha:
			write(6, r.Quantity)
			if r.HasPrice() {
				write(7, *r.UnitPrice)
				write(8, identifiers.Round2(*r.UnitPrice*float64(r.Quantity)))
			} else if r.Total != nil && r.TotalKind == string(assemble.TotalAmount) {
				write(8, *r.Total)
			}
		default:
			qty := r.Quantity
			if r.TotalKind == string(assemble.TotalUnits) {
				qty = r.BaseQuantity
			}
			write(6, qty)
			if r.Total != nil {
				write(7, *r.Total)
			}
		}
		row++
	}

	_ = f.SetColWidth(s.sheet, "A", "B", 12) // order, client
	_ = f.SetColWidth(s.sheet, "C", "D", 18) // cnpj, ean
	_ = f.SetColWidth(s.sheet, "E", "E", 48) // description
	_ = f.SetColWidth(s.sheet, "F", "H", 12) // amounts
	_ = f.SetPanes(s.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"mode", string(mode),
		"rows", len(records),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
