package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"risk-calculator-go/internal/history"
	"risk-calculator-go/internal/quotes"
	"risk-calculator-go/internal/risk"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type settingsRequest struct {
	Capital     decimal.NullDecimal `json:"capital"`
	RiskPercent decimal.NullDecimal `json:"risk_percent"`
}

// updateSettings stores capital and risk percent. Missing fields fall back to the defaults.
func (s *Server) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := currentUserID(c)
	defaults := s.accounts.DefaultSettings(userID)
	capital, pct := defaults.Capital, defaults.RiskPercent
	if req.Capital.Valid {
		capital = req.Capital.Decimal
	}
	if req.RiskPercent.Valid {
		pct = req.RiskPercent.Decimal
	}

	settings, err := s.accounts.UpdateSettings(c.Request.Context(), userID, capital, pct)
	if err != nil {
		s.failErr(c, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Settings updated successfully",
		"settings": newSettingsResponse(settings),
	})
}

type calculateRequest struct {
	EntryPrice  decimal.NullDecimal `json:"entry_price"`
	StopLoss    decimal.NullDecimal `json:"stop_loss"`
	Direction   string              `json:"direction"`
	CustomRatio string              `json:"custom_ratio"`
}

// calculate sizes a trade from the stored settings of the user.
func (s *Server) calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := s.plan(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		s.failErr(c, err, "Failed to calculate position")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "plan": newPlanResponse(plan)})
}

func (s *Server) plan(ctx context.Context, userID uint, req calculateRequest) (*risk.Plan, error) {
	dir, err := risk.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	if !req.EntryPrice.Valid {
		return nil, &risk.ValidationError{Field: "entry_price", Message: "Entry price is required"}
	}
	if !req.StopLoss.Valid {
		return nil, &risk.ValidationError{Field: "stop_loss", Message: "Stop loss is required"}
	}

	settings, err := s.accounts.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	return risk.NewPlan(risk.Input{
		Capital:     settings.Capital,
		RiskPercent: settings.RiskPercent,
		EntryPrice:  req.EntryPrice.Decimal,
		StopLoss:    req.StopLoss.Decimal,
		Direction:   dir,
		CustomRatio: req.CustomRatio,
	})
}

type saveRequest struct {
	calculateRequest
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Targets  string `json:"targets"`
}

// saveCalculation appends a calculation to the history. A missing quantity or targets text is
// filled in from the plan computed with the current settings.
func (s *Server) saveCalculation(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)

	plan, err := s.plan(ctx, userID, req.calculateRequest)
	if err != nil {
		s.failErr(c, err, "Failed to save calculation")
		return
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = plan.Quantity
	}
	targets := strings.TrimSpace(req.Targets)
	if targets == "" {
		targets = plan.TargetsText()
	}

	row, err := s.history.Save(ctx, userID, history.Entry{
		Symbol:     req.Symbol,
		EntryPrice: plan.EntryPrice,
		StopLoss:   plan.StopLoss,
		Quantity:   quantity,
		Direction:  plan.Direction,
		Targets:    targets,
	})
	if err != nil {
		s.failErr(c, err, "Failed to save calculation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Calculation saved successfully",
		"calculation": newCalculationResponse(row),
	})
}

func (s *Server) getHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := s.history.List(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		s.failErr(c, err, "Failed to load history")
		return
	}

	out := make([]calculationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newCalculationResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": out, "count": len(out)})
}

func (s *Server) clearHistory(c *gin.Context) {
	deleted, err := s.history.Clear(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.failErr(c, err, "Failed to clear history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "History cleared successfully", "deleted": deleted})
}

func (s *Server) searchStocks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	results, err := s.stocks.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.failErr(c, err, "Failed to search stocks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (s *Server) stockQuote(c *gin.Context) {
	symbol := quotes.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		fail(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	q, err := s.quotes.Quote(c.Request.Context(), symbol)
	if errors.Is(err, quotes.ErrNotFound) {
		fail(c, http.StatusNotFound, "Stock not found")
		return
	}
	if err != nil {
		s.logger.Warn("Quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		fail(c, http.StatusBadGateway, "Quote unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "quote": q})
}
