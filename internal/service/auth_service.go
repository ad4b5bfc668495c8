package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines token lifetimes and claim checks.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
	SingleSession      bool
}

// AuthService issues and validates the bearer credentials that carry {user_id, role}.
// Refresh tokens are opaque, single use and stored only as SHA-256 digests.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
	cost      int
}

func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		cost:      bcrypt.DefaultCost,
	}
}

type session struct {
	access   string
	refresh  string
	issuedAt time.Time
}

type clientMeta struct {
	ip        string
	userAgent string
}

// Login authenticates by email and password and opens a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}
	meta := clientMeta{ip: req.IP, userAgent: req.UserAgent}

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(placeholderHash(), []byte(req.Password))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	case err != nil:
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("revoke previous sessions", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	sess, err := s.open(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, sess.issuedAt); err != nil {
		s.logger.Warn("update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, user.ID, models.AuditActionLogin, meta, map[string]any{"role": user.Role})

	return &models.LoginResponse{
		AccessToken:  sess.access,
		RefreshToken: sess.refresh,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     sess.issuedAt,
		User: models.UserInfo{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			ClassName: user.ClassNameValue(),
		},
	}, nil
}

// RefreshToken rotates a refresh token. Presenting an already rotated token revokes every session of its owner.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid refresh payload")
	}
	meta := clientMeta{ip: req.IP, userAgent: req.UserAgent}

	stored, err := s.lookupRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if stored.Revoked {
		if err := s.repo.RevokeUserRefreshTokens(ctx, stored.UserID); err != nil {
			s.logger.Error("revoke sessions after token reuse", zap.String("user_id", stored.UserID), zap.Error(err))
		}
		s.audit(ctx, stored.UserID, models.AuditActionTokenReuse, meta, map[string]any{"token_id": stored.ID})
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token already used")
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token expired")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	case err != nil:
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
		return nil, appErrors.Internal(err, "failed to rotate refresh token")
	}
	sess, err := s.open(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, models.AuditActionTokenRefresh, meta, map[string]any{"previous": stored.ID})

	return &models.RefreshTokenResponse{
		AccessToken:  sess.access,
		RefreshToken: sess.refresh,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     sess.issuedAt,
	}, nil
}

// Logout revokes one refresh token owned by userID.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error {
	stored, err := s.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if !stored.Revoked {
		if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
			return appErrors.Internal(err, "failed to revoke refresh token")
		}
	}
	s.audit(ctx, userID, models.AuditActionLogout, clientMeta{ip: meta.IP, userAgent: meta.UserAgent}, nil)
	return nil
}

// ChangePassword verifies the current password, stores the new hash and ends all sessions.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid change password payload")
	}
	if req.OldPassword == req.NewPassword {
		return appErrors.Clone(appErrors.ErrValidation, "new password must differ from the current one")
	}

	user, err := s.repo.FindByID(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	case err != nil:
		return appErrors.Internal(err, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash), s.now()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("revoke sessions after password change", zap.String("user_id", userID), zap.Error(err))
	}
	s.audit(ctx, userID, models.AuditActionPasswordChange, clientMeta{}, nil)
	return nil
}

// ValidateToken verifies signature, expiry and, when configured, issuer and audience.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}

	var claims models.JWTClaims
	if _, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return &claims, nil
}

// open signs an access token and persists a fresh refresh token for user.
func (s *AuthService) open(ctx context.Context, user *models.User, meta clientMeta) (*session, error) {
	issued := s.now()
	access, err := s.signAccess(user, issued)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}
	if err := s.repo.CreateRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     digest(refresh),
		ExpiresAt: issued.Add(s.config.RefreshTokenExpiry),
		CreatedAt: issued,
		IPAddress: meta.ip,
		UserAgent: meta.userAgent,
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to persist refresh token")
	}
	return &session{access: access, refresh: refresh, issuedAt: issued}, nil
}

func (s *AuthService) signAccess(user *models.User, issued time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.config.AccessTokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) lookupRefresh(ctx context.Context, raw string) (*models.RefreshToken, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required")
	}
	stored, err := s.repo.FindRefreshToken(ctx, digest(raw))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not recognised")
	case err != nil:
		return nil, appErrors.Internal(err, "failed to load refresh token")
	}
	return stored, nil
}

func (s *AuthService) audit(ctx context.Context, userID, action string, meta clientMeta, values map[string]any) {
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		IPAddress:  meta.ip,
		UserAgent:  meta.userAgent,
	}
	if len(values) > 0 {
		if raw, err := json.Marshal(values); err == nil {
			entry.NewValues = raw
		}
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("write auth audit log", zap.String("action", action), zap.Error(err))
	}
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var (
	placeholderOnce sync.Once
	placeholder     []byte
)

func placeholderHash() []byte {
	placeholderOnce.Do(func() {
		placeholder, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	})
	return placeholder
}
