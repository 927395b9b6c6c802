package web

import (
	"net/http"

	"risk-calculator-go/internal/subscription"

	"github.com/gin-gonic/gin"
)

type deviceRequest struct {
	DeviceID string `json:"device_id" form:"device_id"`
	Email    string `json:"email" form:"email"`
}

func (s *Server) registerDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	reg, err := s.subscriptions.RegisterDevice(c.Request.Context(), req.DeviceID, req.Email)
	if err != nil {
		s.failErr(c, err, "Failed to register device")
		return
	}

	c.JSON(http.StatusOK, struct {
		Success bool `json:"success"`
		*subscription.Registration
	}{true, reg})
}

// checkAccess answers with the gate decision. A denial is still a successful response.
func (s *Server) checkAccess(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := s.subscriptions.CheckAccess(c.Request.Context(), req.DeviceID)
	if err != nil {
		s.failErr(c, err, "Failed to check access")
		return
	}

	c.JSON(http.StatusOK, struct {
		Success bool `json:"success"`
		subscription.Decision
	}{true, d})
}
