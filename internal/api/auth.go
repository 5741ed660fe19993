package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/config"
)

// defaultTokenTTLMinutes applies when the config leaves the TTL unset.
const defaultTokenTTLMinutes = 15

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleLogin authenticates against the configured static accounts and
// returns a JWT. The claims carry the identity fields entity writes are
// attributed to (subject, email, nickname, admin).
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, ok := s.lookupAccount(req.Username, req.Password)
	if !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl == 0 {
		ttl = defaultTokenTTLMinutes
	}

	claims := jwt.MapClaims{
		"sub":      account.Username,
		"email":    account.Email,
		"nickname": account.Nickname,
		"admin":    account.Admin,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Duration(ttl) * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secCfg.JWT.Secret))
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // seconds
	})
}

// lookupAccount finds a configured account matching the credentials.
func (s *Server) lookupAccount(username, password string) (config.UserConfig, bool) {
	for _, account := range s.secCfg.Users {
		if account.Username != username {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(account.Password), []byte(password)) == 1 {
			return account, true
		}
		return config.UserConfig{}, false
	}
	return config.UserConfig{}, false
}
