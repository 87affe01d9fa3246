package present

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
)

// Currency defaults: Portuguese number formatting with a Euro suffix, as in
// "80,00 EUR".
const (
	DefaultLocale   = "pt"
	DefaultCurrency = "EUR"
)

// Formatter renders a price.
type Formatter interface {
	Format(amount float64) (string, error)
}

// CurrencyFormatter formats amounts for a locale and currency.
type CurrencyFormatter struct {
	printer    *message.Printer
	unit       currency.Unit
	scale      int
	showSymbol bool
}

// NewCurrencyFormatter creates a CurrencyFormatter. Unknown locales or
// currency codes fail with a formatting error.
func NewCurrencyFormatter(locale, code string, showSymbol bool) (*CurrencyFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, apperrors.Format(fmt.Errorf("parse locale %q: %w", locale, err))
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, apperrors.Format(fmt.Errorf("parse currency %q: %w", code, err))
	}
	scale, _ := currency.Standard.Rounding(unit)

	return &CurrencyFormatter{
		printer:    message.NewPrinter(tag),
		unit:       unit,
		scale:      scale,
		showSymbol: showSymbol,
	}, nil
}

// Format renders amount with the currency's standard number of decimals. The
// ISO code is appended unless the symbol is shown instead.
func (f *CurrencyFormatter) Format(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", apperrors.Format(fmt.Errorf("amount %v is not finite", amount))
	}

	if f.showSymbol {
		return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount))), nil
	}
	return f.printer.Sprint(number.Decimal(amount, number.Scale(f.scale))) + " " + f.unit.String(), nil
}
