// internal/money/format.go
package money

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/javajoker/storefront/internal/i18n"
)

// ParsePrice turns a raw price into a decimal. Already formatted display strings
// ("4.50 JD", "1,234.00") are not valid input and fail to parse.
func ParsePrice(price interface{}) (decimal.Decimal, bool) {
	switch v := price.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int8:
		return decimal.NewFromInt(int64(v)), true
	case int16:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(v)), true
	case uint16:
		return decimal.NewFromInt(int64(v)), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), true
	default:
		return decimal.Zero, false
	}
}

// FormatPrice renders a raw price for display, e.g. "1,234.50 JD" or "١٠٫٠٠ د.أ".
// Unparsable prices render the locale's "not available" text instead of failing.
func FormatPrice(price interface{}, locale string) string {
	d, ok := ParsePrice(price)
	if !ok {
		return i18n.T(locale, i18n.KeyPriceNotAvailable)
	}
	return FormatDecimal(d, locale)
}

// FormatDecimal renders an already parsed amount with two fraction digits and the currency suffix.
// Digits come from the decimal itself, so large amounts keep every digit.
func FormatDecimal(d decimal.Decimal, locale string) string {
	sym := englishSymbols
	if i18n.IsArabic(locale) {
		sym = arabicSymbols
	}

	fixed := d.Round(2).StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(strings.TrimPrefix(fixed, "-"), ".")

	var b strings.Builder
	if neg {
		b.WriteString(sym.minus)
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(sym.group)
		}
		b.WriteString(sym.digits[r-'0'])
	}
	b.WriteString(sym.decimal)
	for _, r := range frac {
		b.WriteString(sym.digits[r-'0'])
	}

	return b.String() + " " + i18n.T(locale, i18n.KeyCurrencySuffix)
}

// numberSymbols are a locale's digits and separators as its printer writes them.
type numberSymbols struct {
	digits  [10]string
	group   string
	decimal string
	minus   string
}

var (
	englishSymbols = symbolsFor(language.English)
	arabicSymbols  = symbolsFor(language.Arabic)
)

func symbolsFor(tag language.Tag) numberSymbols {
	p := message.NewPrinter(tag)

	var sym numberSymbols
	for i := range sym.digits {
		sym.digits[i] = p.Sprint(number.Decimal(i))
	}
	strip := func(formatted string) string {
		for _, digit := range sym.digits {
			formatted = strings.ReplaceAll(formatted, digit, "")
		}
		return formatted
	}

	sym.group = strip(p.Sprint(number.Decimal(1000)))
	sym.decimal = strip(p.Sprint(number.Decimal(0.5, number.Scale(1))))
	sym.minus = strip(p.Sprint(number.Decimal(-1)))
	return sym
}
