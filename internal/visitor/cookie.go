// Package visitor ties browser visitors to their booking flow: a signed
// cookie names the visitor, a Registry holds the live controllers and a
// Store persists them in Redis.
package visitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the signed visitor id.
const CookieName = "salon_visitor"

type contextKey string

const visitorIDKey contextKey = "visitorID"

// Signer issues and verifies HMAC-signed visitor tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("visitor: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for visitorID.
func (s *Signer) Issue(visitorID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("visitor: sign: %w", err)
	}
	return token, nil
}

// Parse verifies a token and returns the visitor id it names.
func (s *Signer) Parse(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("visitor: invalid token: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("visitor: invalid subject: %w", err)
	}
	return claims.Subject, nil
}

// Middleware makes sure every request carries a visitor id, issuing a new
// cookie when the request has none or an invalid one.
func Middleware(signer *Signer, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(CookieName); err == nil {
				id, _ = signer.Parse(c.Value)
			}
			if id == "" {
				id = uuid.NewString()
				token, err := signer.Issue(id)
				if err != nil {
					http.Error(w, `{"error":"visitor session unavailable"}`, http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(signer.ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// WithID stores a visitor id on ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorIDKey, id)
}

// IDFromContext returns the visitor id set by Middleware.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}
