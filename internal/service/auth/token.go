package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenScope marks tokens issued by this service.
const TokenScope = "money-loop"

const minTTLSeconds = 60

// TokenPayload is the signed, self-contained claim set. Verification
// needs only the shared secret, no server-side session.
type TokenPayload struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
	IAT   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
	Scope string `json:"scope"`
}

// IssueInput carries everything token issuance needs. Now enables
// deterministic testing; the zero value means wall clock.
type IssueInput struct {
	Email      string
	Plan       string
	Secret     string
	TTLSeconds int64
	Now        time.Time
}

// IssueUserToken mints a signed token for one subject. Email and secret
// are required; a TTL below 60s is floored to prevent instantly-expiring
// tokens.
func IssueUserToken(in IssueInput) (string, error) {
	if in.Email == "" {
		return "", fmt.Errorf("email is required")
	}
	if in.Secret == "" {
		return "", fmt.Errorf("secret is required")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	ttl := in.TTLSeconds
	if ttl < minTTLSeconds {
		ttl = minTTLSeconds
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	sum := sha256.Sum256([]byte(email))
	payload := TokenPayload{
		Sub:   hex.EncodeToString(sum[:]),
		Email: email,
		Plan:  strings.ToLower(strings.TrimSpace(in.Plan)),
		IAT:   now.Unix(),
		Exp:   now.Unix() + ttl,
		Scope: TokenScope,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + sign(encoded, in.Secret), nil
}

// VerifyResult is the structured outcome of token verification. Reason
// is set only when Valid is false.
type VerifyResult struct {
	Valid   bool          `json:"valid"`
	Reason  string        `json:"reason,omitempty"`
	Payload *TokenPayload `json:"payload,omitempty"`
}

// VerifyUserToken checks structure, signature, payload shape, and expiry
// in that order. Signature comparison is constant-time.
func VerifyUserToken(token, secret string, now time.Time) VerifyResult {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return VerifyResult{Reason: "malformed token"}
	}

	want, err := base64.RawURLEncoding.DecodeString(sign(parts[0], secret))
	if err != nil {
		return VerifyResult{Reason: "invalid signature"}
	}
	got, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !hmac.Equal(want, got) {
		return VerifyResult{Reason: "invalid signature"}
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return VerifyResult{Reason: "invalid payload"}
	}
	var payload TokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return VerifyResult{Reason: "invalid payload"}
	}

	if now.IsZero() {
		now = time.Now()
	}
	if payload.Exp == 0 || payload.Exp <= now.Unix() {
		return VerifyResult{Reason: "token expired"}
	}

	return VerifyResult{Valid: true, Payload: &payload}
}

func sign(encodedPayload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
