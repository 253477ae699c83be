package nanoamount

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Nano amounts are published with 6 decimal places while the ledger counts
// in raw, at 10^30 raw per XNO. Conversions go through whole micro-XNO
// units so no binary floating point ever touches the final raw integer.
const microPerXNO = 1_000_000

var (
	// RawPerMicro is 10^24 raw per micro-XNO.
	RawPerMicro = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)

	// ToleranceRaw is the amount-matching slack of 0.0001 XNO expressed in
	// raw units (10^26). Display rounding on either side of a payment can
	// shave off sub-tolerance dust, so exact-integer equality is too strict.
	ToleranceRaw = new(big.Int).Exp(big.NewInt(10), big.NewInt(26), nil)
)

var ErrInvalidInput = errors.New("nanoamount: fiat total and exchange rate must be positive")

// Amount is one encoded payment amount: the 6-decimal display value shown to
// the payer and the exact raw integer the ledger must deliver.
type Amount struct {
	XNO float64
	Raw *big.Int
}

type Encoder struct {
	suffix func() int64
}

func NewEncoder() *Encoder {
	return &Encoder{
		suffix: func() int64 { return rand.Int64N(9999) + 1 },
	}
}

// NewEncoderWithSuffix fixes the uniqueness suffix draw. Tests use it to make
// encoding deterministic.
func NewEncoderWithSuffix(suffix func() int64) *Encoder {
	return &Encoder{suffix: suffix}
}

// Encode converts a fiat total in minor units (cents) plus a live USD/XNO
// exchange rate into a payment amount. A uniform random suffix in
// [0.000001, 0.009999] XNO is added so concurrent orders against the shared
// receiving address never collide on amount.
func (e *Encoder) Encode(fiatCents int64, exchangeRate float64) (Amount, error) {
	if fiatCents <= 0 || exchangeRate <= 0 {
		return Amount{}, ErrInvalidInput
	}

	base := decimal.NewFromInt(fiatCents).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(exchangeRate))

	suffix := decimal.New(e.suffix(), -6)

	xno := base.Add(suffix).Round(6)

	micro := xno.Shift(6).IntPart()
	raw := new(big.Int).Mul(big.NewInt(micro), RawPerMicro)

	display, _ := xno.Float64()
	return Amount{XNO: display, Raw: raw}, nil
}

// DisplayFromRaw decodes a raw amount back to its 6-decimal display value.
func DisplayFromRaw(raw *big.Int) float64 {
	micro := new(big.Int).Quo(raw, RawPerMicro)
	display, _ := decimal.New(micro.Int64(), -6).Float64()
	return display
}

// ParseRaw parses a ledger raw amount given as a decimal integer string.
func ParseRaw(s string) (*big.Int, error) {
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok || raw.Sign() < 0 {
		return nil, fmt.Errorf("nanoamount: invalid raw amount %q", s)
	}
	return raw, nil
}

// WithinTolerance reports whether a candidate ledger amount matches the
// expected amount inside the ±0.0001 XNO window.
func WithinTolerance(candidate, expected *big.Int) bool {
	diff := new(big.Int).Sub(candidate, expected)
	return diff.CmpAbs(ToleranceRaw) <= 0
}

// CentsToDollars converts fiat minor units to dollars for display.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100.0
}

// FormatUSD formats cents as a USD string.
func FormatUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", CentsToDollars(cents))
}
