package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// CookieName is the cookie the auth service stores the token in.
const CookieName = "jwt"

// Claims is the token payload issued by the auth service. This middleware
// only consumes it; issuance lives elsewhere.
type Claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// NewAuthMiddleware validates the caller's token and attaches the resulting
// principal to the request context. Requests without a valid token get 401.
func NewAuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				apierror.Write(w, principal.ErrUnauthorized)

				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !parsed.Valid {
				apierror.Write(w, principal.ErrUnauthorized)

				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				apierror.Write(w, principal.ErrUnauthorized)

				return
			}

			ctx := principal.WithContext(r.Context(), principal.Principal{
				UserID:  userID,
				Name:    claims.Name,
				Email:   claims.Email,
				IsAdmin: claims.IsAdmin,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return ""
}
