package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"risk-calculator-go/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxSession = "session"
	ctxUserID  = "user_id"
)

// requestLogger logs every request, or only failed ones when logAll is false.
func requestLogger(logger *zap.Logger, logAll bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		if !logAll && status < http.StatusBadRequest {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("error", errs))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request served", fields...)
		}
	}
}

// observe records request counts and latency per route pattern.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// recovery turns a panic into a JSON failure for API routes and a plain 500 elsewhere.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("Panic while serving request", zap.Any("panic", err), zap.String("path", c.Request.URL.Path))
		if isAPI(c) {
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// authRequired rejects requests without a live session: 401 JSON for the API, a redirect to
// the login page otherwise.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := s.sessions.FromRequest(c)
		if !ok {
			if isAPI(c) {
				fail(c, http.StatusUnauthorized, "Authentication required")
				return
			}
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.Path))
			c.Abort()
			return
		}

		c.Set(ctxSession, session)
		c.Set(ctxUserID, session.UserID)
		c.Next()
	}
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func currentSession(c *gin.Context) *Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}
