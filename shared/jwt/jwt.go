package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
)

// Claims carry the identity the forum needs to build an Actor. The IP is
// never part of the token; it comes from the request.
type Claims struct {
	jwt.RegisteredClaims
	Uid       domain.ActorId `json:"uid"`
	Name      string         `json:"name"`
	Moderator bool           `json:"mod,omitempty"`
	Admin     bool           `json:"admin,omitempty"`
}

// Actor turns verified claims into an authenticated actor.
func (c *Claims) Actor(ip string) domain.Actor {
	return domain.Actor{
		Id:   c.Uid,
		Name: c.Name,
		IP:   ip,
		Caps: domain.Capabilities{Authenticated: true, Moderator: c.Moderator, Administrator: c.Admin},
	}
}

type JwtService interface {
	NewToken(actor domain.Actor) (string, error)
	DecodeToken(jwtStr string) (*Claims, error)
}

type Jwt struct {
	secretKey []byte
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) *Jwt {
	return &Jwt{secretKey: []byte(secretKey), ttl: ttl}
}

// NewToken is used by the operator CLI and tests; the identity provider
// issues tokens in production.
func (j *Jwt) NewToken(actor domain.Actor) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Uid:       actor.Id,
		Name:      actor.Name,
		Moderator: actor.Caps.Moderator,
		Admin:     actor.Caps.Administrator,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("can't sign token: %w", err)
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(jwtStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "component", "jwt", "error", err)
		return nil, internal_errors.New(internal_errors.ErrPermissionDenied, "Invalid token")
	}
	if !token.Valid {
		return nil, internal_errors.New(internal_errors.ErrPermissionDenied, "Invalid access token")
	}
	return claims, nil
}
