package i18n

import "fmt"

// currencySymbols maps ISO 4217 currency codes to their display symbol.
var currencySymbols = map[string]struct {
	symbol string
	prefix bool // true = "৳1200.00", false = "1200.00 XYZ"
}{
	"BDT": {"৳", true},
	"USD": {"$", true},
	"INR": {"₹", true},
}

// FormatAmount returns a human-readable amount string with the currency symbol.
//
//	FormatAmount(6500, "BDT")  → "৳6500.00"
//	FormatAmount(15.5, "XYZ")  → "15.50 XYZ"
func FormatAmount(amount float64, currencyCode string) string {
	info, ok := currencySymbols[currencyCode]
	if !ok {
		return fmt.Sprintf("%.2f %s", amount, currencyCode)
	}
	if info.prefix {
		return fmt.Sprintf("%s%.2f", info.symbol, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, info.symbol)
}
