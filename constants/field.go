package constants

import (
	"strings"
)

// Field is a canonical column of the extracted order schema.
type Field string

const (
	FieldTaxID       Field = "CNPJ"
	FieldProductID   Field = "EAN"
	FieldDescription Field = "DESCRICAO"
	FieldQuantity    Field = "QUANTIDADE"
	FieldPrice       Field = "PRECO"
	FieldTotal       Field = "TOTAL"
	FieldClientCode  Field = "CODCLI"
	FieldOrderNumber Field = "PEDIDO"
)

// FieldPriority is the order in which columns are claimed by the mapper.
// Secondary identifiers come last so they never steal a primary column.
var FieldPriority = []Field{
	FieldTaxID,
	FieldProductID,
	FieldDescription,
	FieldQuantity,
	FieldPrice,
	FieldTotal,
	FieldClientCode,
	FieldOrderNumber,
}

// DefaultAliases are the known header spellings per field.
var DefaultAliases = map[Field][]string{
	FieldTaxID:       {"CNPJ", "CNPJ_FILIAL", "CNPJ_LOJA"},
	FieldProductID:   {"EAN", "CÓDIGO", "COD_BARRA", "CÓDIGO_BARRA", "BARCODE", "SKU"},
	FieldDescription: {"DESCRIÇÃO", "DESCRICAO", "MERCADORIA", "PRODUTO", "NOME", "DESC"},
	FieldQuantity:    {"QUANTIDADE", "QTDE", "QT", "COMPRA", "QUANT", "QTD", "QUANTIDADE_PEDIDO"},
	FieldPrice:       {"PREÇO", "VALOR", "CUSTO", "PREÇO_UNITÁRIO", "PREÇO_UNIT", "VALOR_UNITÁRIO", "VLR_UNIT"},
	FieldTotal:       {"TOTAL", "CUSTO_TOTAL", "PREÇO_TOTAL", "VALOR_TOTAL", "TOTAL_ITEM"},
	FieldClientCode:  {"CODCLI", "CODE", "CÓD", "CODIGO_CLI", "CÓDIGO_CLIENTE"},
	FieldOrderNumber: {"PEDIDO", "NUMERO_PEDIDO", "NR_PEDIDO"},
}

// FieldsAsStringSlice lists the canonical fields in priority order.
func FieldsAsStringSlice() []string {
	result := make([]string, len(FieldPriority))
	for i, f := range FieldPriority {
		result[i] = string(f)
	}
	return result
}

// CanonicalizeField maps a profile key such as "ean" or "preço" to a Field.
func CanonicalizeField(input string) (Field, bool) {
	if input == "" {
		return "", false
	}
	normalized := strings.ToUpper(strings.TrimSpace(input))

	synonyms := map[string]Field{
		"PREÇO":       FieldPrice,
		"PRICE":       FieldPrice,
		"DESCRIÇÃO":   FieldDescription,
		"DESCRIPTION": FieldDescription,
		"QTDE":        FieldQuantity,
		"QUANTITY":    FieldQuantity,
		"BARCODE":     FieldProductID,
		"TAX_ID":      FieldTaxID,
	}
	if f, ok := synonyms[normalized]; ok {
		return f, true
	}
	for _, f := range FieldPriority {
		if normalized == string(f) {
			return f, true
		}
	}
	return "", false
}
