package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	refreshCookieName   = "refresh_token"
	refreshCookiePath   = "/api/auth"
	refreshCookieMaxAge = 7 * 24 * 60 * 60 // seconds
)

// Every response, success or failure, uses the same envelope so clients can
// always parse the body the same way. Machine dispatch happens on the HTTP
// status code; payload text is diagnostic only.
type requestDetails struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

type statusDetails struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

type envelope struct {
	Request requestDetails `json:"request"`
	Status  statusDetails  `json:"status"`
	Payload any            `json:"payload"`
}

func respond(c *gin.Context, code int, payload any) {
	c.JSON(code, envelope{
		Request: requestDetails{Path: c.Request.URL.Path, Method: c.Request.Method},
		Status:  statusDetails{Code: code, Text: http.StatusText(code)},
		Payload: payload,
	})
}

// respondTokens sends the access token in the body and sets the refresh token
// as an HttpOnly cookie scoped to the auth path, so scripts never see it.
func respondTokens(c *gin.Context, code int, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refreshToken, refreshCookieMaxAge, refreshCookiePath, "", false, true)
	respond(c, code, gin.H{"access_token": accessToken})
}

func respondServerError(c *gin.Context) {
	respond(c, http.StatusInternalServerError, "Server error, try again later")
}
