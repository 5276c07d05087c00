// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/passgate/passgate/internal/auth"
)

const (
	accountIDKey    = "passgate.account_id"
	unmatchedRoute  = "unmatched"
	bearerPrefix    = "bearer "
	authorizationHd = "Authorization"
)

// routeOf returns the route template so metrics and logs stay low-cardinality.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

func (a *API) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", routeOf(c),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (a *API) recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.metrics.ObserveRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

func (a *API) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxBodyBytes)
		}
		c.Next()
	}
}

func (a *API) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		a.logger.ErrorContext(c.Request.Context(), "panic in handler",
			"route", routeOf(c),
			"panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, messageResponse{Message: auth.MsgServerError})
	})
}

// requireSession resolves the Authorization header to an account ID. The
// header may carry "Bearer <token>" or the bare token.
func (a *API) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.auth.Authenticate(c.Request.Context(), tokenFromHeader(c.GetHeader(authorizationHd)))
		if err != nil {
			a.writeError(c, "authenticate", err, http.StatusBadRequest)
			return
		}
		c.Set(accountIDKey, id)
		c.Next()
	}
}

func tokenFromHeader(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return h
}

func accountID(c *gin.Context) ulid.ULID {
	id, _ := c.Get(accountIDKey)
	v, _ := id.(ulid.ULID)
	return v
}
