package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	jwt_internal "github.com/itchan-dev/forum/shared/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	jwtService := jwt_internal.New("test_secret", time.Hour)
	admin := domain.Actor{Id: 1, Name: "root", Caps: domain.Capabilities{Administrator: true}}
	tokenAdmin, err := jwtService.NewToken(admin)
	require.NoError(t, err)

	tests := []struct {
		name           string
		cookie         *http.Cookie
		header         string
		expectedStatus int
		expectedActor  domain.Actor
	}{
		{
			name:           "No token",
			expectedStatus: http.StatusOK,
			expectedActor:  domain.Actor{IP: "192.0.2.1"},
		},
		{
			name:           "Cookie",
			cookie:         &http.Cookie{Name: "accessToken", Value: tokenAdmin},
			expectedStatus: http.StatusOK,
			expectedActor: domain.Actor{Id: 1, Name: "root", IP: "192.0.2.1",
				Caps: domain.Capabilities{Authenticated: true, Administrator: true}},
		},
		{
			name:           "Bearer header",
			header:         "Bearer " + tokenAdmin,
			expectedStatus: http.StatusOK,
			expectedActor: domain.Actor{Id: 1, Name: "root", IP: "192.0.2.1",
				Caps: domain.Capabilities{Authenticated: true, Administrator: true}},
		},
		{
			name:           "Invalid token",
			cookie:         &http.Cookie{Name: "accessToken", Value: "invalid_token"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			var got domain.Actor
			handler := NewAuth(jwtService).Identify()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetActorFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedActor, got)
			}
		})
	}
}

func TestNeedAuth(t *testing.T) {
	auth := NewAuth(jwt_internal.New("test_secret", time.Hour))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", nil)

		auth.NeedAuth()(ok).ServeHTTP(rr, req.WithContext(WithActor(req.Context(), domain.Actor{IP: "192.0.2.1"})))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("member", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/", nil)
		member := domain.Actor{Id: 5, Caps: domain.Capabilities{Authenticated: true}}

		auth.NeedAuth()(ok).ServeHTTP(rr, req.WithContext(WithActor(req.Context(), member)))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestGetActorFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.True(t, GetActorFromContext(req).IsAnonymous())
}
