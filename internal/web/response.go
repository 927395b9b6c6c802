package web

import (
	"errors"
	"net/http"
	"time"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail aborts with {"success": false, "message": msg}.
func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// failErr maps a service error to a response. Validation errors are shown as-is; anything else
// is logged and replaced by generic.
func (s *Server) failErr(c *gin.Context, err error, generic string) {
	switch {
	case risk.IsValidation(err):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, "Authentication required")
	default:
		_ = c.Error(err)
		s.logger.Error(generic, zap.String("path", c.Request.URL.Path), zap.Error(err))
		fail(c, http.StatusInternalServerError, generic)
	}
}

type settingsResponse struct {
	Capital     float64 `json:"capital"`
	RiskPercent float64 `json:"risk_percent"`
	RiskAmount  float64 `json:"risk_amount"`
}

func newSettingsResponse(st *models.UserSettings) settingsResponse {
	amount, _ := risk.RiskAmount(st.Capital, st.RiskPercent)
	return settingsResponse{
		Capital:     st.Capital.InexactFloat64(),
		RiskPercent: st.RiskPercent.InexactFloat64(),
		RiskAmount:  amount.InexactFloat64(),
	}
}

type targetResponse struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

func newTargetResponse(t risk.Target) targetResponse {
	return targetResponse{Label: t.Label(), Ratio: t.Ratio.InexactFloat64(), Price: t.Price.InexactFloat64()}
}

type planResponse struct {
	Direction    risk.Direction   `json:"direction"`
	Capital      float64          `json:"capital"`
	RiskPercent  float64          `json:"risk_percent"`
	RiskAmount   float64          `json:"risk_amount"`
	EntryPrice   float64          `json:"entry_price"`
	StopLoss     float64          `json:"stop_loss"`
	RiskPerUnit  float64          `json:"risk_per_unit"`
	Quantity     int64            `json:"quantity"`
	TradeRisk    float64          `json:"trade_risk"`
	Targets      []targetResponse `json:"targets"`
	CustomTarget *targetResponse  `json:"custom_target,omitempty"`
	TargetsText  string           `json:"targets_text"`
}

func newPlanResponse(p *risk.Plan) planResponse {
	resp := planResponse{
		Direction:   p.Direction,
		Capital:     p.Capital.InexactFloat64(),
		RiskPercent: p.RiskPercent.InexactFloat64(),
		RiskAmount:  p.RiskAmount.InexactFloat64(),
		EntryPrice:  p.EntryPrice.InexactFloat64(),
		StopLoss:    p.StopLoss.InexactFloat64(),
		RiskPerUnit: p.RiskPerUnit.InexactFloat64(),
		Quantity:    p.Quantity,
		TradeRisk:   risk.TradeRisk(p.EntryPrice, p.StopLoss, p.Quantity).InexactFloat64(),
		Targets:     make([]targetResponse, 0, len(p.Targets)),
		TargetsText: p.TargetsText(),
	}
	for _, t := range p.Targets {
		resp.Targets = append(resp.Targets, newTargetResponse(t))
	}
	if p.CustomTarget != nil {
		ct := newTargetResponse(*p.CustomTarget)
		resp.CustomTarget = &ct
	}
	return resp
}

type calculationResponse struct {
	ID              uint      `json:"id"`
	Symbol          string    `json:"symbol"`
	EntryPrice      float64   `json:"entry_price"`
	StopLoss        float64   `json:"stop_loss"`
	Quantity        int64     `json:"quantity"`
	Direction       string    `json:"direction"`
	RiskPerQuantity float64   `json:"risk_per_quantity"`
	RiskAmount      float64   `json:"risk_amount"`
	Targets         string    `json:"targets"`
	Timestamp       time.Time `json:"timestamp"`
}

func newCalculationResponse(row *models.CalculationHistory) calculationResponse {
	return calculationResponse{
		ID:              row.ID,
		Symbol:          row.Symbol,
		EntryPrice:      row.EntryPrice.InexactFloat64(),
		StopLoss:        row.StopLoss.InexactFloat64(),
		Quantity:        row.Quantity,
		Direction:       row.Direction,
		RiskPerQuantity: row.RiskPerQuantity.InexactFloat64(),
		RiskAmount:      row.RiskAmount.InexactFloat64(),
		Targets:         row.Targets,
		Timestamp:       row.Timestamp,
	}
}
