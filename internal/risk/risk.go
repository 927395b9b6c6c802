// Package risk implements the position-sizing arithmetic: how much capital a trade may
// lose, how many units that buys at a given stop, and where the reward targets sit.
package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction is the side of a trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

var (
	hundred = decimal.NewFromInt(100)

	// MaxCapital is the largest value the decimal(15,2) capital column holds.
	MaxCapital = decimal.RequireFromString("9999999999999.99")

	maxQuantity = decimal.NewFromInt(math.MaxInt64)

	// DefaultTargetRatios are the reward multiples shown for every plan.
	DefaultTargetRatios = []int64{2, 3, 4, 5}
)

var (
	ErrInvalidDirection = errors.New("direction must be long or short")
	ErrZeroRiskPerUnit  = errors.New("entry price and stop loss must differ")
	ErrInvalidRatio     = errors.New("ratio must be a positive number like 10 or 1:10")
)

// ValidationError reports bad user input. It is always shown to the caller as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure rather than a fault.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrZeroRiskPerUnit) ||
		errors.Is(err, ErrInvalidRatio)
}

// ParseDirection accepts long/short, buy/sell and the legacy "Buy (Long)" / "Sell (Short)"
// labels in any case. An empty string means long.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long", "buy", "buy (long)":
		return Long, nil
	case "short", "sell", "sell (short)":
		return Short, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// ValidateSettings checks 0 <= capital <= MaxCapital and 0 <= riskPercent <= 100.
func ValidateSettings(capital, riskPercent decimal.Decimal) error {
	if capital.IsNegative() {
		return invalid("capital", "Capital cannot be negative")
	}
	if capital.GreaterThan(MaxCapital) {
		return invalid("capital", "Capital cannot exceed %s", MaxCapital.StringFixed(2))
	}
	if riskPercent.IsNegative() || riskPercent.GreaterThan(hundred) {
		return invalid("risk_percent", "Risk percent must be between 0 and 100")
	}
	return nil
}

// ValidatePrices checks that both prices are positive and lie on the right side of each other
// for the trade direction.
func ValidatePrices(entry, stop decimal.Decimal, dir Direction) error {
	if !entry.IsPositive() {
		return invalid("entry_price", "Entry price must be greater than zero")
	}
	if !stop.IsPositive() {
		return invalid("stop_loss", "Stop loss must be greater than zero")
	}
	switch dir {
	case Long:
		if entry.LessThanOrEqual(stop) {
			return invalid("stop_loss", "For Long trades, entry price must be higher than stop loss.")
		}
	case Short:
		if entry.GreaterThanOrEqual(stop) {
			return invalid("stop_loss", "For Short trades, entry price must be lower than stop loss.")
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	return nil
}

// RiskAmount returns capital x riskPercent / 100 rounded to two decimal places.
func RiskAmount(capital, riskPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateSettings(capital, riskPercent); err != nil {
		return decimal.Zero, err
	}
	return capital.Mul(riskPercent).Div(hundred).Round(2), nil
}

// RiskPerUnit is |entry - stop|.
func RiskPerUnit(entry, stop decimal.Decimal) decimal.Decimal {
	return entry.Sub(stop).Abs()
}

// PositionSize is floor(riskAmount / riskPerUnit).
func PositionSize(riskAmount, riskPerUnit decimal.Decimal) (int64, error) {
	if !riskPerUnit.IsPositive() {
		return 0, ErrZeroRiskPerUnit
	}
	if !riskAmount.IsPositive() {
		return 0, nil
	}
	q, _ := riskAmount.QuoRem(riskPerUnit, 0)
	if q.GreaterThan(maxQuantity) {
		return 0, invalid("quantity", "Position size is too large; widen the stop loss or lower the risk")
	}
	return q.IntPart(), nil
}

// TradeRisk is the amount lost if the stop is hit: |entry - stop| x quantity.
func TradeRisk(entry, stop decimal.Decimal, quantity int64) decimal.Decimal {
	return RiskPerUnit(entry, stop).Mul(decimal.NewFromInt(quantity)).Round(2)
}

// Target is a take-profit level at a reward:risk multiple.
type Target struct {
	Ratio decimal.Decimal `json:"ratio"`
	Price decimal.Decimal `json:"price"`
}

// Label formats the target as "1:ratio".
func (t Target) Label() string {
	return "1:" + t.Ratio.String()
}

// TargetAt returns the price that earns ratio times the risk per unit.
func TargetAt(entry, riskPerUnit decimal.Decimal, dir Direction, ratio decimal.Decimal) Target {
	move := riskPerUnit.Mul(ratio)
	price := entry.Add(move)
	if dir == Short {
		price = entry.Sub(move)
	}
	return Target{Ratio: ratio, Price: price.Round(2)}
}

// ParseRatio reads a custom reward ratio written as "10" or "1:10".
func ParseRatio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	ratio, err := decimal.NewFromString(s)
	if err != nil || !ratio.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	return ratio, nil
}
