package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-key"

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(testSecret, 15*time.Minute)
	raw, exp, err := iss.Issue("alice", []string{"ROLE_USER", "ROLE_ADMIN"})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.Roles)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(testSecret, -1*time.Minute)
	raw, _, err := iss.Issue("bob", []string{"ROLE_USER"})
	require.NoError(t, err)

	_, err = iss.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongKey(t *testing.T) {
	t.Parallel()

	raw, _, err := NewIssuer("other-secret", time.Hour).Issue("carol", nil)
	require.NoError(t, err)

	_, err = NewIssuer(testSecret, time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTamperedBeatsExpired(t *testing.T) {
	t.Parallel()

	// A tampered payload must fail the signature check even when the
	// embedded expiry is also in the past.
	iss := NewIssuer(testSecret, -1*time.Minute)
	raw, _, err := iss.Issue("dave", []string{"ROLE_USER"})
	require.NoError(t, err)

	_, err = iss.Verify(tamperPayload(t, raw))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(testSecret, time.Hour).Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestSubjectAndExpiryOnExpiredToken(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(testSecret, -1*time.Minute)
	raw, exp, err := iss.Issue("erin", nil)
	require.NoError(t, err)

	sub, err := iss.Subject(raw)
	require.NoError(t, err)
	assert.Equal(t, "erin", sub)

	got, err := iss.Expiry(raw)
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), got.Unix())
}

func TestSubjectStillChecksSignature(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(testSecret, time.Hour)
	raw, _, err := iss.Issue("frank", nil)
	require.NoError(t, err)

	_, err = iss.Subject(tamperPayload(t, raw))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// tamperPayload swaps the subject inside the payload segment without
// re-signing, producing a structurally valid but forged token.
func tamperPayload(t *testing.T, raw string) string {
	t.Helper()
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"sub":"`, `"sub":"x`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))
	return strings.Join(parts, ".")
}
