package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Input is everything needed to size one trade.
type Input struct {
	Capital     decimal.Decimal
	RiskPercent decimal.Decimal
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	Direction   Direction
	CustomRatio string
}

// Plan is the sized trade.
type Plan struct {
	Direction    Direction       `json:"direction"`
	Capital      decimal.Decimal `json:"capital"`
	RiskPercent  decimal.Decimal `json:"risk_percent"`
	RiskAmount   decimal.Decimal `json:"risk_amount"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	StopLoss     decimal.Decimal `json:"stop_loss"`
	RiskPerUnit  decimal.Decimal `json:"risk_per_unit"`
	Quantity     int64           `json:"quantity"`
	Targets      []Target        `json:"targets"`
	CustomTarget *Target         `json:"custom_target,omitempty"`
}

// NewPlan validates the input and computes the position size and targets.
func NewPlan(in Input) (*Plan, error) {
	riskAmount, err := RiskAmount(in.Capital, in.RiskPercent)
	if err != nil {
		return nil, err
	}
	if err := ValidatePrices(in.EntryPrice, in.StopLoss, in.Direction); err != nil {
		return nil, err
	}

	perUnit := RiskPerUnit(in.EntryPrice, in.StopLoss)
	quantity, err := PositionSize(riskAmount, perUnit)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Direction:   in.Direction,
		Capital:     in.Capital,
		RiskPercent: in.RiskPercent,
		RiskAmount:  riskAmount,
		EntryPrice:  in.EntryPrice,
		StopLoss:    in.StopLoss,
		RiskPerUnit: perUnit,
		Quantity:    quantity,
	}
	for _, r := range DefaultTargetRatios {
		plan.Targets = append(plan.Targets, TargetAt(in.EntryPrice, perUnit, in.Direction, decimal.NewFromInt(r)))
	}

	if strings.TrimSpace(in.CustomRatio) != "" {
		ratio, err := ParseRatio(in.CustomRatio)
		if err != nil {
			return nil, err
		}
		t := TargetAt(in.EntryPrice, perUnit, in.Direction, ratio)
		plan.CustomTarget = &t
	}

	return plan, nil
}

// TargetsText renders the targets one per line, the format stored with a saved calculation.
func (p *Plan) TargetsText() string {
	var b strings.Builder
	for i, t := range p.Targets {
		fmt.Fprintf(&b, "Target %d (%s): %s\n", i+1, t.Label(), t.Price.StringFixed(2))
	}
	if p.CustomTarget != nil {
		fmt.Fprintf(&b, "Custom (%s): %s\n", p.CustomTarget.Label(), p.CustomTarget.Price.StringFixed(2))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
