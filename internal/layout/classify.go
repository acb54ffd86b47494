package layout

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
)

// Role is what a token can stand for inside a record.
type Role int

const (
	RoleOther Role = iota
	RoleProductID
	RoleMoney
	RoleQuantity
	RoleBrand
	RoleDescription
)

func (r Role) String() string {
	switch r {
	case RoleProductID:
		return "product_id"
	case RoleMoney:
		return "money"
	case RoleQuantity:
		return "quantity"
	case RoleBrand:
		return "brand"
	case RoleDescription:
		return "description"
	default:
		return "other"
	}
}

var reMoney = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2})$`)

// DefaultBrandMarkers are vendor banners printed in their own column.
var DefaultBrandMarkers = []string{"gama", "televendas"}

// IsMoney reports a "12,34" or "12.34" token, with an optional currency mark.
func IsMoney(text string) bool {
	return reMoney.MatchString(stripCurrency(text))
}

// IsQuantity reports a bare integer in [1, 9999].
func IsQuantity(text string) bool {
	if !identifiers.IsInteger(text) || len(text) > 4 {
		return false
	}
	n, err := strconv.Atoi(text)
	return err == nil && n >= 1 && n <= 9999
}

// classify assigns the role of a token. Description is a catch-all for
// wordy tokens; the caller still applies the horizontal window.
func classify(text string, brands []string) Role {
	t := strings.TrimSpace(text)
	switch {
	case t == "":
		return RoleOther
	case isProductID(t):
		return RoleProductID
	case IsMoney(t):
		return RoleMoney
	case IsQuantity(t):
		return RoleQuantity
	case isBrand(t, brands):
		return RoleBrand
	case isTaxID(t):
		return RoleOther
	case hasAlnum(t):
		return RoleDescription
	default:
		return RoleOther
	}
}

func isProductID(t string) bool {
	_, ok := identifiers.ExtractProductID(t)
	return ok
}

func isTaxID(t string) bool {
	_, ok := identifiers.ExtractTaxID(t)
	return ok
}

func isBrand(t string, brands []string) bool {
	lower := strings.ToLower(t)
	for _, b := range brands {
		if b != "" && strings.Contains(lower, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

func hasAlnum(t string) bool {
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func stripCurrency(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "R$")
	return strings.TrimSpace(t)
}
