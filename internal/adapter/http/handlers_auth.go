// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"jobflow/internal/domain"

	"github.com/rs/zerolog"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, s.Sessions.Cookie(sess))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, sess, err := s.Auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleLogout deletes the session before clearing the cookie; if the delete
// fails the cookie is left alone so the client can retry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.Sessions.CookieName()); err == nil && c.Value != "" {
		if err := s.Auth.Logout(r.Context(), c.Value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	http.SetCookie(w, s.Sessions.BlankCookie())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.LogoutAll(r.Context(), userID(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, s.Sessions.BlankCookie())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := identityFrom(r.Context()).User
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.Auth.ChangePassword(r.Context(), userID(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ssoEnabled": s.OIDC != nil,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.OIDC == nil {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}
	state, err := generateState()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("generate oauth state")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.OIDC.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.OIDC == nil {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}
	logger := zerolog.Ctx(r.Context())

	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, MaxAge: -1, Path: "/"})

	token, err := s.OIDC.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Warn().Err(err).Msg("oauth code exchange failed")
		http.Error(w, "failed to exchange token", http.StatusBadGateway)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token", http.StatusBadGateway)
		return
	}

	idToken, err := s.OIDC.verify(r.Context(), rawIDToken)
	if err != nil {
		logger.Warn().Err(err).Msg("id token verification failed")
		http.Error(w, "failed to verify token", http.StatusUnauthorized)
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		http.Error(w, "id token carries no email", http.StatusBadRequest)
		return
	}
	if !claims.EmailVerified {
		logger.Warn().Str("subject", idToken.Subject).Msg("sso login with unverified email")
		http.Error(w, "email not verified", http.StatusForbidden)
		return
	}

	sess, err := s.Auth.LoginWithUser(r.Context(), claims.Email)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindConflict:
			http.Error(w, domain.MessageOf(err), http.StatusConflict)
		case domain.KindValidation:
			http.Error(w, domain.MessageOf(err), http.StatusBadRequest)
		default:
			logger.Error().Err(err).Msg("sso login failed")
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}
