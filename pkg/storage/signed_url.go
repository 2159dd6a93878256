package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and checks download tokens for exported files.
// Tokens are self-contained, so the download route needs no session.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a token binding the job to its stored file path, valid
// until the configured TTL elapses.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expiresAt := time.Now().Add(s.ttl)
	payload := encodePayload(jobID, relPath, expiresAt.Unix())
	token := payload + "." + s.sign(payload)
	return token, expiresAt, nil
}

// Parse checks the token signature and returns the embedded job and path.
// When allowExpired is true the expiry check is skipped, which cleanup
// routines use to identify stale files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	payload, signature, found := strings.Cut(token, ".")
	if !found {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	if !hmac.Equal([]byte(s.sign(payload)), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	jobID, relPath, expUnix, err := decodePayload(payload)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return jobID, relPath, expiresAt, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func encodePayload(jobID, relPath string, expUnix int64) string {
	raw := jobID + "\n" + strconv.FormatInt(expUnix, 10) + "\n" + relPath
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodePayload(payload string) (jobID, relPath string, expUnix int64, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", "", 0, fmt.Errorf("decode payload: %w", err)
	}
	parts := strings.SplitN(string(raw), "\n", 3)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed payload")
	}
	expUnix, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid expiry")
	}
	return parts[0], parts[2], expUnix, nil
}
