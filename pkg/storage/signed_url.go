package storage

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadAudience marks report download tokens so access tokens signed with the same secret are rejected.
const DownloadAudience = "report-download"

// ErrInvalidToken is returned for malformed, tampered or expired download tokens.
var ErrInvalidToken = errors.New("invalid download token")

type downloadClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// SignedURLSigner issues HS256 download tokens binding a report job to its stored file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs jobID and relPath. The returned expiry is truncated to whole seconds.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("job id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	issued := s.now()
	claims := downloadClaims{
		Path: relPath,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   jobID,
			Audience:  jwt.ClaimStrings{DownloadAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Parse verifies a token. allowExpired skips time checks so cleanup can still resolve old files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithAudience(DownloadAudience), jwt.WithExpirationRequired())
	}

	var claims downloadClaims
	if _, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !slices.Contains(claims.Audience, DownloadAudience) || claims.Subject == "" || claims.Path == "" {
		return "", "", time.Time{}, ErrInvalidToken
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.Subject, claims.Path, expiresAt, nil
}
