package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// requireAuth validates the Authorization bearer token. Tokens are HS256
// signed with the configured secret and must identify the caller through a
// sub or user_id claim; anything else is rejected.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, ingestResponse{Error: "missing or invalid token"})
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, ingestResponse{Error: "invalid token"})
			return
		}

		caller, _ := claims["sub"].(string)
		if caller == "" {
			caller, _ = claims["user_id"].(string)
		}
		if caller == "" {
			writeJSON(w, http.StatusUnauthorized, ingestResponse{Error: "invalid token claims"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
