package main

import (
	"errors"
	"net/http"

	"bb01/models"
	"bb01/pkg/tokens"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server bundles the service layer for the handlers.
type Server struct {
	auth   *AuthService
	boards *BoardService
	codec  *tokens.Codec
}

func NewServer(auth *AuthService, boards *BoardService, codec *tokens.Codec) *Server {
	return &Server{auth: auth, boards: boards, codec: codec}
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		respond(c, http.StatusNotFound, "No matching endpoint")
	})
	r.NoMethod(func(c *gin.Context) {
		respond(c, http.StatusMethodNotAllowed, "Method not allowed for the requested endpoint")
	})
	r.HandleMethodNotAllowed = true

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/login", s.loginHandler)
	auth.POST("/register", s.registerHandler)

	authProtected := auth.Group("")
	authProtected.Use(authRequired(s.codec))
	authProtected.POST("/refresh", s.refreshHandler)
	authProtected.POST("/logout", s.logoutHandler)

	protected := api.Group("")
	protected.Use(authRequired(s.codec))
	protected.GET("/users/me", s.meHandler)
	protected.POST("/boards", s.createBoardHandler)
	protected.GET("/boards", s.listBoardsHandler)
	protected.GET("/boards/:pid", s.getBoardHandler)
	protected.DELETE("/boards/:pid", s.deleteBoardHandler)
	protected.POST("/organisations", s.createOrganisationHandler)
}

func (s *Server) loginHandler(c *gin.Context) {
	var form struct {
		Email    string `form:"email" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&form); err != nil {
		respond(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			respond(c, http.StatusUnauthorized, "Invalid email and/or password")
			return
		}
		log.Error().Err(err).Msg("login failed")
		respondServerError(c)
		return
	}
	respondTokens(c, http.StatusOK, pair.AccessToken, pair.RefreshToken)
}

func (s *Server) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respond(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.auth.Register(c.Request.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, errDuplicate) {
			respond(c, http.StatusConflict, "Email address or username already in use")
			return
		}
		log.Error().Err(err).Msg("registration failed")
		respondServerError(c)
		return
	}
	respondTokens(c, http.StatusCreated, pair.AccessToken, pair.RefreshToken)
}

func (s *Server) refreshHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c)
	if !ok {
		// /refresh is still a protected route even with the expiry carve-out
		respond(c, http.StatusUnauthorized, "Access token is required")
		return
	}

	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		respond(c, http.StatusUnauthorized, "Refresh token is missing")
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), subject, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, errTokenRevoked):
			respond(c, http.StatusUnauthorized, "Refresh token is no longer valid")
		case errors.Is(err, errClaimMismatch):
			respond(c, http.StatusUnauthorized, "Claim subjects did not match. Please login")
		case errors.Is(err, tokens.ErrExpired):
			respond(c, http.StatusUnauthorized, "Refresh token has expired")
		case errors.Is(err, tokens.ErrInvalidSignature):
			respond(c, http.StatusUnauthorized, "Refresh token signature is invalid")
		case errors.Is(err, tokens.ErrMalformed):
			respond(c, http.StatusUnauthorized, "Refresh token is not recognized")
		case errors.Is(err, tokens.ErrInvalid):
			respond(c, http.StatusUnauthorized, "Refresh token is invalid")
		default:
			log.Error().Err(err).Msg("refresh failed")
			respondServerError(c)
		}
		return
	}
	respondTokens(c, http.StatusOK, pair.AccessToken, pair.RefreshToken)
}

func (s *Server) logoutHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Must be authenticated")
		return
	}

	refreshToken, _ := c.Cookie(refreshCookieName) // absent cookie is fine

	if err := s.auth.Logout(c.Request.Context(), subject, refreshToken); err != nil {
		if errors.Is(err, errMustAuthenticate) {
			respond(c, http.StatusUnauthorized, "Must be authenticated")
			return
		}
		log.Error().Err(err).Msg("logout failed")
		respondServerError(c)
		return
	}
	respond(c, http.StatusOK, "Logout successful")
}

// currentUser resolves the verified subject to its principal, rejecting
// subjects whose identity has been rotated away.
func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	subject, ok := subjectFromContext(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "Must be authenticated")
		return nil, false
	}
	user, err := s.auth.ResolveSubject(c.Request.Context(), subject)
	if err != nil {
		if errors.Is(err, errMustAuthenticate) {
			respond(c, http.StatusUnauthorized, "Must be authenticated")
			return nil, false
		}
		log.Error().Err(err).Msg("failed to resolve subject")
		respondServerError(c)
		return nil, false
	}
	return user, true
}

func (s *Server) meHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{
		"username":  user.Username,
		"email":     user.Email,
		"firstname": user.FirstName,
		"lastname":  user.LastName,
	})
}
