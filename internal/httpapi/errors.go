// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/pkg/errutil"
)

// Public messages owned by the HTTP layer.
const (
	MsgInvalidBody   = "Invalid request body"
	MsgBodyTooLarge  = "Request body too large"
	MsgRouteNotFound = "Not found"
)

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps an error kind to a status. Not-found is 400 on the public
// flows to match forgot-password; profile routes pass notFound=404.
func statusFor(kind auth.Kind, notFound int) int {
	switch kind {
	case auth.KindValidation, auth.KindConflict, auth.KindInvalidCredentials, auth.KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case auth.KindNotFound:
		return notFound
	case auth.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(c *gin.Context, op string, err error, notFound int) {
	status := statusFor(auth.KindOf(err), notFound)
	if status == http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request.Context(), a.logger, op+" failed", err)
	}
	c.AbortWithStatusJSON(status, messageResponse{Message: auth.PublicMessage(err)})
}

// bindJSON decodes the body into dst. An empty body leaves dst zero so the
// flow reports the missing fields. It writes the error response itself and
// reports whether the handler should continue.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, messageResponse{Message: MsgBodyTooLarge})
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, messageResponse{Message: MsgInvalidBody})
	return false
}
