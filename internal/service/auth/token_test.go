package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func issue(t *testing.T, in IssueInput) string {
	t.Helper()
	token, err := IssueUserToken(in)
	require.NoError(t, err)
	return token
}

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	token := issue(t, IssueInput{
		Email:      "  Jamie@Example.COM ",
		Plan:       "Starter",
		Secret:     "s3cret",
		TTLSeconds: 3600,
		Now:        testNow,
	})

	res := VerifyUserToken(token, "s3cret", testNow.Add(30*time.Minute))

	require.True(t, res.Valid)
	require.Empty(t, res.Reason)
	require.Equal(t, "jamie@example.com", res.Payload.Email)
	require.Equal(t, "starter", res.Payload.Plan)
	require.Equal(t, TokenScope, res.Payload.Scope)
	require.Equal(t, testNow.Unix(), res.Payload.IAT)
	require.Equal(t, testNow.Unix()+3600, res.Payload.Exp)
	require.Len(t, res.Payload.Sub, 64)
}

func TestIssueRequiresEmailAndSecret(t *testing.T) {
	_, err := IssueUserToken(IssueInput{Secret: "s3cret"})
	require.Error(t, err)

	_, err = IssueUserToken(IssueInput{Email: "a@b.com"})
	require.Error(t, err)
}

func TestIssueFloorsTTL(t *testing.T) {
	token := issue(t, IssueInput{
		Email:      "a@b.com",
		Secret:     "s3cret",
		TTLSeconds: 1,
		Now:        testNow,
	})

	res := VerifyUserToken(token, "s3cret", testNow)
	require.True(t, res.Valid)
	require.Equal(t, testNow.Unix()+60, res.Payload.Exp)
}

func TestVerifyExpired(t *testing.T) {
	token := issue(t, IssueInput{
		Email:      "a@b.com",
		Secret:     "s3cret",
		TTLSeconds: 60,
		Now:        testNow,
	})

	res := VerifyUserToken(token, "s3cret", testNow.Add(61*time.Second))

	require.False(t, res.Valid)
	require.Equal(t, "token expired", res.Reason)
	require.Nil(t, res.Payload)
}

func TestVerifyWrongSecret(t *testing.T) {
	token := issue(t, IssueInput{Email: "a@b.com", Secret: "s3cret", Now: testNow})

	res := VerifyUserToken(token, "other", testNow)

	require.False(t, res.Valid)
	require.Equal(t, "invalid signature", res.Reason)
}

func TestVerifyTamperedPayload(t *testing.T) {
	token := issue(t, IssueInput{Email: "a@b.com", Secret: "s3cret", Now: testNow})
	parts := strings.Split(token, ".")
	tampered := parts[0][:len(parts[0])-2] + "xx" + "." + parts[1]

	res := VerifyUserToken(tampered, "s3cret", testNow)

	require.False(t, res.Valid)
	require.Equal(t, "invalid signature", res.Reason)
}

func TestVerifyMalformed(t *testing.T) {
	for _, token := range []string{"", "justonepart", "a.b.c", ".", "abc.", ".abc"} {
		res := VerifyUserToken(token, "s3cret", testNow)
		require.False(t, res.Valid, "token %q", token)
		require.Equal(t, "malformed token", res.Reason, "token %q", token)
	}
}

func TestVerifyInvalidPayloadJSON(t *testing.T) {
	// Correctly signed segment that is not valid JSON.
	encoded := "bm90LWpzb24"
	token := encoded + "." + sign(encoded, "s3cret")

	res := VerifyUserToken(token, "s3cret", testNow)

	require.False(t, res.Valid)
	require.Equal(t, "invalid payload", res.Reason)
}
