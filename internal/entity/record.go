package entity

// LineItem is an intermediate extraction result, produced by a strategy and
// consumed by the assembler. Price and Total keep whatever raw form the source
// delivered (string cell, float, nil).
type LineItem struct {
	OrderNumber string `json:"order_number,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Price       any    `json:"price,omitempty"`
	Total       any    `json:"total,omitempty"`
	Line        int    `json:"line,omitempty"` // 1-based source row or line, 0 if unknown
}

// CanonicalRecord is the terminal line-item schema every strategy converges to.
type CanonicalRecord struct {
	OrderNumber    string   `json:"order_number,omitempty"`
	TaxID          string   `json:"tax_id,omitempty"`
	ProductID      string   `json:"product_id"`
	Description    string   `json:"description"`
	Quantity       int      `json:"quantity"`
	BaseQuantity   int      `json:"base_quantity"`
	Multiplier     int      `json:"multiplier"`
	UnitPrice      *float64 `json:"unit_price,omitempty"`
	Total          *float64 `json:"total,omitempty"`
	TotalKind      string   `json:"total_kind,omitempty"` // "units" or "amount" when Total is set
	ProductIDValid bool     `json:"product_id_valid"`
	TaxIDValid     bool     `json:"tax_id_valid"`
	Source         string   `json:"source"`
	File           string   `json:"file,omitempty"`
}

// HasPrice reports whether a unit price was extracted.
func (r CanonicalRecord) HasPrice() bool {
	return r.UnitPrice != nil
}
