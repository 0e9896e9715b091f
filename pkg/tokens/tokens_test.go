package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(now func() time.Time) *Codec {
	return NewCodec(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           now,
	})
}

func TestRoundTrip(t *testing.T) {
	c := testCodec(nil)

	at, err := c.IssueAccess("subject-1")
	require.NoError(t, err)
	rt, err := c.IssueRefresh("subject-1")
	require.NoError(t, err)

	atClaims, err := c.DecodeAccess(at)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", atClaims.Subject)
	assert.Equal(t, string(Access), atClaims.TokenType)

	rtClaims, err := c.DecodeRefresh(rt)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", rtClaims.Subject)
	assert.Equal(t, string(Refresh), rtClaims.TokenType)
}

func TestClassesAreNotInterchangeable(t *testing.T) {
	c := testCodec(nil)

	at, err := c.IssueAccess("subject-1")
	require.NoError(t, err)
	rt, err := c.IssueRefresh("subject-1")
	require.NoError(t, err)

	// different secrets per class, so the signature check fails first
	_, err = c.DecodeRefresh(at)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = c.DecodeAccess(rt)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWrongClassSameSecret(t *testing.T) {
	// with identical secrets the signature validates and the class check
	// has to catch the swap
	c := NewCodec(Config{
		AccessSecret:  []byte("shared"),
		RefreshSecret: []byte("shared"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	rt, err := c.IssueRefresh("subject-1")
	require.NoError(t, err)

	_, err = c.DecodeAccess(rt)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWrongSecret(t *testing.T) {
	c := testCodec(nil)
	other := NewCodec(Config{
		AccessSecret:  []byte("some-other-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	at, err := other.IssueAccess("subject-1")
	require.NoError(t, err)

	_, err = c.DecodeAccess(at)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMalformed(t *testing.T) {
	c := testCodec(nil)

	for _, tok := range []string{"", "garbage", "a.b", "!!.!!.!!"} {
		_, err := c.DecodeAccess(tok)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func TestExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	c := testCodec(func() time.Time { return now })

	at, err := c.IssueAccess("subject-1")
	require.NoError(t, err)

	exp := issued.Add(15 * time.Minute)

	// one second before expiry: still valid
	now = exp.Add(-time.Second)
	_, err = c.DecodeAccess(at)
	assert.NoError(t, err)

	// at exactly the expiry instant: already expired (exclusive bound)
	now = exp
	_, err = c.DecodeAccess(at)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeAccessExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	c := testCodec(func() time.Time { return now })

	at, err := c.IssueAccess("subject-1")
	require.NoError(t, err)

	now = issued.Add(48 * time.Hour)
	_, err = c.DecodeAccess(at)
	require.ErrorIs(t, err, ErrExpired)

	// expiry skipped, subject recovered
	claims, err := c.DecodeAccessExpired(at)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", claims.Subject)

	// signature is still enforced in the lenient mode
	tampered := at[:len(at)-4] + "AAAA"
	_, err = c.DecodeAccessExpired(tampered)
	assert.Error(t, err)
}
