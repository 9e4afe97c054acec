package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	j := New("test_secret", time.Hour)
	mod := domain.Actor{Id: 2, Name: "mod", Caps: domain.Capabilities{Authenticated: true, Moderator: true}}

	t.Run("round trip", func(t *testing.T) {
		token, err := j.NewToken(mod)
		require.NoError(t, err)

		claims, err := j.DecodeToken(token)
		require.NoError(t, err)

		actor := claims.Actor("10.0.0.2")
		assert.Equal(t, mod.Id, actor.Id)
		assert.Equal(t, "mod", actor.Name)
		assert.Equal(t, "10.0.0.2", actor.IP)
		assert.True(t, actor.IsModerator())
		assert.False(t, actor.IsAdministrator())
		assert.False(t, actor.IsAnonymous())
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := New("other", time.Hour).NewToken(mod)
		require.NoError(t, err)

		_, err = j.DecodeToken(token)
		assert.True(t, errors.Is(err, internal_errors.ErrPermissionDenied))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := New("test_secret", -time.Minute).NewToken(mod)
		require.NoError(t, err)

		_, err = j.DecodeToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.DecodeToken("not.a.token")
		assert.Error(t, err)
	})
}
