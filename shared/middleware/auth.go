package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/forum/shared/domain"
	jwt_internal "github.com/itchan-dev/forum/shared/jwt"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/itchan-dev/forum/shared/utils"
)

// TokenDecoder verifies access tokens.
type TokenDecoder interface {
	DecodeToken(jwtStr string) (*jwt_internal.Claims, error)
}

// Key to store the actor in the request context
type key int

const ActorKey key = 0

// AccessCookie carries the token for browser clients.
const AccessCookie = "accessToken"

type Auth struct {
	tokens TokenDecoder
}

func NewAuth(tokens TokenDecoder) *Auth {
	return &Auth{tokens: tokens}
}

// Identify puts an Actor into every request context: the token holder when
// a valid token is present, an anonymous actor with the client IP otherwise.
// A token that is present but invalid is rejected rather than downgraded.
func (a *Auth) Identify() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := utils.GetIP(r)
			if err != nil {
				logger.Log.Warn("can't determine client ip", "component", "auth", "error", err)
			}

			actor := domain.Actor{IP: ip}
			if token := tokenFromRequest(r); token != "" {
				claims, err := a.tokens.DecodeToken(token)
				if err != nil {
					http.Error(w, "Invalid token", http.StatusUnauthorized)
					return
				}
				actor = claims.Actor(ip)
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NeedAuth rejects anonymous actors. It must run after Identify.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetActorFromContext(r).IsAnonymous() {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenFromRequest prefers the cookie (browsers) over the Authorization
// header (API clients).
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

// GetActorFromContext returns an anonymous actor when Identify did not run.
func GetActorFromContext(r *http.Request) domain.Actor {
	actor, _ := r.Context().Value(ActorKey).(domain.Actor)
	return actor
}

// WithActor is used by tests and internal callers to inject an identity.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
