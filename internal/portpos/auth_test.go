package portpos

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHeader(t *testing.T) {
	at := time.Unix(1700000000, 0)

	t.Run("KnownAnswer", func(t *testing.T) {
		// md5("sk_test_secret" + "1700000000") = 40f25e6d6825405ef4fcb99399cf130a
		got := AuthHeader("app_key_1", "sk_test_secret", at)
		assert.Equal(t, "Bearer YXBwX2tleV8xOjQwZjI1ZTZkNjgyNTQwNWVmNGZjYjk5Mzk5Y2YxMzBh", got)
	})

	t.Run("Shape", func(t *testing.T) {
		got := AuthHeader("app", "secret", at)
		require.True(t, strings.HasPrefix(got, "Bearer "))

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "Bearer "))
		require.NoError(t, err)

		parts := strings.SplitN(string(decoded), ":", 2)
		require.Len(t, parts, 2)
		assert.Equal(t, "app", parts[0])
		assert.Len(t, parts[1], 32) // hex md5 digest
	})

	t.Run("FreshPerTimestamp", func(t *testing.T) {
		a := AuthHeader("app", "secret", at)
		b := AuthHeader("app", "secret", at.Add(time.Second))
		assert.NotEqual(t, a, b)
		assert.Equal(t, a, AuthHeader("app", "secret", at))
	})
}
