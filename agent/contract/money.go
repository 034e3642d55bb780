package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents).
type Money int64

// maxPrice keeps unit price times line quantity well inside int64.
const maxPrice = 1e12

// ParseMoney accepts decimal strings such as "4", "4.5" or "4.00".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty price", ErrValidation)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %v", ErrValidation, s, err)
	}
	return MoneyFromFloat(f)
}

func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: price must be a non-negative number", ErrValidation)
	}
	if f > maxPrice {
		return 0, fmt.Errorf("%w: price %.2f is too large", ErrValidation, f)
	}
	return Money(math.Round(f * 100)), nil
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// MarshalJSON renders the amount as a decimal string so clients never see minor units.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var (
		v   Money
		err error
	)
	switch x := raw.(type) {
	case string:
		v, err = ParseMoney(x)
	case float64:
		v, err = MoneyFromFloat(x)
	case nil:
		v = 0
	default:
		err = fmt.Errorf("%w: unsupported price %v", ErrValidation, raw)
	}
	if err != nil {
		return err
	}
	*m = v
	return nil
}
