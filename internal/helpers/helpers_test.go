package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 50},
		{"3", "20", 3, 20},
		{"0", "-5", 1, 50},
		{"x", "y", 1, 50},
		{"2", "1000", 2, MaxPageLimit},
	}
	for _, tc := range cases {
		page, limit := ParsePagination(tc.page, tc.limit, DefaultPageLimit)
		assert.Equal(t, tc.wantPage, page, "page %q", tc.page)
		assert.Equal(t, tc.wantLimit, limit, "limit %q", tc.limit)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := IssueToken(secret, "65a1b2c3d4e5f60718293a4b", "admin", "Asia/Kolkata", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "65a1b2c3d4e5f60718293a4b", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "Asia/Kolkata", claims.Timezone)

	_, err = ValidateToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = IssueToken(nil, "id", "user", "", time.Hour)
	assert.Error(t, err)
}
