package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

type pageData struct {
	Title    string
	Error    string
	Info     string
	Next     string
	Username string
	Email    string

	User          *models.User
	Settings      *models.UserSettings
	RiskAmount    decimal.Decimal
	Paid          bool
	History       []models.CalculationHistory
	DefaultRatios []int64
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type registerForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required"`
}

func (s *Server) index(c *gin.Context) {
	if _, ok := s.sessions.FromRequest(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) loginPage(c *gin.Context) {
	if _, ok := s.sessions.FromRequest(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	data := pageData{Title: "Login", Next: safeNext(c.Query("next"))}
	if c.Query("logged_out") != "" {
		data.Info = "You have been logged out successfully"
	}
	c.HTML(http.StatusOK, "login.html", data)
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", pageData{Title: "Login", Error: "Username and password are required", Username: form.Username})
		return
	}

	user, err := s.accounts.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			s.logger.Error("Login failed", zap.Error(err))
		}
		c.HTML(http.StatusUnauthorized, "login.html", pageData{
			Title:    "Login",
			Error:    "Invalid username or password",
			Username: form.Username,
			Next:     safeNext(form.Next),
		})
		return
	}

	s.startSession(c, user)
	next := safeNext(form.Next)
	if next == "" {
		next = "/dashboard"
	}
	c.Redirect(http.StatusFound, next)
}

func (s *Server) registerPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", pageData{Title: "Register"})
}

func (s *Server) register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "register.html", pageData{
			Title:    "Register",
			Error:    "Please fill in a username, a valid email and a password of at least 8 characters",
			Username: form.Username,
			Email:    form.Email,
		})
		return
	}
	if form.Password1 != form.Password2 {
		c.HTML(http.StatusBadRequest, "register.html", pageData{Title: "Register", Error: "Passwords do not match", Username: form.Username, Email: form.Email})
		return
	}

	user, err := s.accounts.CreateAccount(c.Request.Context(), form.Username, form.Email, form.Password1)
	if err != nil {
		msg := "Error creating account"
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken):
			msg, status = "Username already exists", http.StatusConflict
		case risk.IsValidation(err):
			msg, status = err.Error(), http.StatusBadRequest
		default:
			s.logger.Error("Registration failed", zap.Error(err))
		}
		c.HTML(status, "register.html", pageData{Title: "Register", Error: msg, Username: form.Username, Email: form.Email})
		return
	}

	s.startSession(c, user)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) startSession(c *gin.Context, user *models.User) {
	session := s.sessions.Create(user.ID, user.Username)
	s.sessions.SetCookie(c, session)
	s.logger.Info("User signed in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
}

func (s *Server) logout(c *gin.Context) {
	if session, ok := s.sessions.FromRequest(c); ok {
		s.sessions.Delete(session.ID)
	}
	s.sessions.ClearCookie(c)
	c.Redirect(http.StatusFound, "/login?logged_out=1")
}

func (s *Server) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	session := currentSession(c)

	user, err := s.accounts.GetUser(ctx, session.UserID)
	if errors.Is(err, accounts.ErrUserNotFound) {
		s.sessions.Delete(session.ID)
		s.sessions.ClearCookie(c)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load dashboard user", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	settings, err := s.accounts.GetOrCreateSettings(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to load settings", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	riskAmount, _ := risk.RiskAmount(settings.Capital, settings.RiskPercent)

	recent, err := s.history.List(ctx, user.ID, 10)
	if err != nil {
		s.logger.Warn("Failed to load recent history", zap.Error(err))
	}

	c.HTML(http.StatusOK, "dashboard.html", pageData{
		Title:         "Risk Calculator",
		User:          user,
		Settings:      settings,
		RiskAmount:    riskAmount,
		Paid:          user.Subscription != nil && user.Subscription.IsPaid,
		History:       recent,
		DefaultRatios: risk.DefaultTargetRatios,
	})
}

// safeNext only allows local absolute paths as a post-login redirect.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
