// Package web serves the calculator pages and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"risk-calculator-go/internal/accounts"
	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/history"
	"risk-calculator-go/internal/quotes"
	"risk-calculator-go/internal/stocks"
	"risk-calculator-go/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the services the handlers call.
type Deps struct {
	DB            *gorm.DB
	Accounts      *accounts.Service
	History       *history.Service
	Subscriptions *subscription.Service
	Quotes        quotes.Provider
	Stocks        *stocks.Service
	Sessions      *SessionManager
}

// Server is the HTTP front end.
type Server struct {
	cfg           config.Server
	server        *http.Server
	engine        *gin.Engine
	db            *gorm.DB
	accounts      *accounts.Service
	history       *history.Service
	subscriptions *subscription.Service
	quotes        quotes.Provider
	stocks        *stocks.Service
	sessions      *SessionManager
	logger        *zap.Logger
}

// NewServer wires the routes. Call gin.SetMode before it to pick the gin mode.
func NewServer(cfg config.Server, deps Deps, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:           cfg,
		db:            deps.DB,
		accounts:      deps.Accounts,
		history:       deps.History,
		subscriptions: deps.Subscriptions,
		quotes:        deps.Quotes,
		stocks:        deps.Stocks,
		sessions:      deps.Sessions,
		logger:        logger.Named("web"),
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(recovery(s.logger), requestLogger(s.logger, cfg.LogRequests), observe())
	s.routes(r)
	s.engine = r

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.index)
	r.GET("/login", s.loginPage)
	r.POST("/login", s.login)
	r.GET("/register", s.registerPage)
	r.POST("/register", s.register)
	r.GET("/logout", s.logout)

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := r.Group("/", s.authRequired())
	pages.GET("/dashboard", s.dashboard)
	pages.GET("/calculator", s.dashboard)

	device := r.Group("/api/device")
	device.POST("/register", s.registerDevice)
	device.POST("/check-access", s.checkAccess)

	api := r.Group("/api", s.authRequired())
	api.POST("/update-settings", s.updateSettings)
	api.POST("/calculate", s.calculate)
	api.POST("/save-calculation", s.saveCalculation)
	api.GET("/get-history", s.getHistory)
	api.POST("/clear-history", s.clearHistory)
	api.GET("/stocks/search", s.searchStocks)
	api.GET("/stocks/quote", s.stockQuote)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting web server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping web server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
