package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/auth"
)

const sessionLifetime = 7 * 24 * time.Hour

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := s.store.GetUserByUsername(payload.Username)
	if err != nil {
		RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if !auth.CheckPasswordHash(payload.Password, user.PasswordHash) {
		RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	email, err := s.store.GetUserEmail(user.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load user profile")
		return
	}

	// The token carries the email claim so clients can show a profile
	// without another round trip; revocation happens via the session row.
	expiry := time.Now().Add(sessionLifetime)
	token, err := auth.SignToken(auth.Claims{
		Subject: user.Username,
		Email:   email,
		Expiry:  expiry.Unix(),
	}, s.app.Config.Processing.TokenSecret)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := s.store.CreateSession(token, user.ID, expiry); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"username": user.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.store.DeleteSession(token)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	RespondWithJSON(w, http.StatusOK, user)
}
