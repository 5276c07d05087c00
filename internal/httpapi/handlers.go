// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/passgate/passgate/internal/auth"
)

// Success messages.
const (
	MsgRegistered    = "User registered successfully"
	MsgResetLinkSent = "Reset link sent to email"
	MsgPasswordReset = "Password reset successful"
)

func (a *API) register(c *gin.Context) {
	var req auth.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := a.auth.Register(c.Request.Context(), req); err != nil {
		a.writeError(c, "register", err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: MsgRegistered})
}

func (a *API) login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.auth.Login(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, "login", err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) forgotPassword(c *gin.Context) {
	var req auth.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.auth.ForgotPassword(c.Request.Context(), req); err != nil {
		a.writeError(c, "forgot password", err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: MsgResetLinkSent})
}

func (a *API) resetPassword(c *gin.Context) {
	var req auth.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.auth.ResetPassword(c.Request.Context(), req); err != nil {
		a.writeError(c, "reset password", err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: MsgPasswordReset})
}

func (a *API) profile(c *gin.Context) {
	p, ok := a.lookupProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *API) profileName(c *gin.Context) {
	p, ok := a.lookupProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": p.Name})
}

func (a *API) profileEmail(c *gin.Context) {
	p, ok := a.lookupProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": p.Email})
}

func (a *API) lookupProfile(c *gin.Context) (auth.Profile, bool) {
	p, err := a.auth.GetProfile(c.Request.Context(), accountID(c))
	if err != nil {
		a.writeError(c, "get profile", err, http.StatusNotFound)
		return auth.Profile{}, false
	}
	return p, true
}
