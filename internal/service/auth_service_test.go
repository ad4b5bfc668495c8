package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type memAuthRepo struct {
	users        map[string]*models.User
	tokens       map[string]*models.RefreshToken
	revokedUsers []string
	audits       []string
	lastLogin    map[string]time.Time
}

func newMemAuthRepo(users ...*models.User) *memAuthRepo {
	repo := &memAuthRepo{
		users:     map[string]*models.User{},
		tokens:    map[string]*models.RefreshToken{},
		lastLogin: map[string]time.Time{},
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *memAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

func (m *memAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.users[id].PasswordHash = passwordHash
	return nil
}

func (m *memAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memAuthRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[tokenHash]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *memAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log.Action)
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(raw)
}

func newAuthFixture(t *testing.T, cfg AuthConfig) (*AuthService, *memAuthRepo) {
	t.Helper()
	className := "CSE-A"
	repo := newMemAuthRepo(
		&models.User{ID: "s1", Name: "Asha", Email: "asha@campus.test", PasswordHash: hashed(t, "password"), Role: models.RoleStudent, ClassName: &className, Active: true},
		&models.User{ID: "f9", Email: "gone@campus.test", PasswordHash: hashed(t, "password"), Role: models.RoleFaculty},
	)
	if cfg.AccessTokenSecret == "" {
		cfg.AccessTokenSecret = "secret"
	}
	svc := NewAuthService(repo, nil, nil, cfg)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestLoginIssuesSession(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{AccessTokenExpiry: time.Hour})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@campus.test", Password: "password", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "CSE-A", res.User.ClassName)
	assert.Contains(t, repo.lastLogin, "s1")
	assert.Equal(t, []string{models.AuditActionLogin}, repo.audits)

	require.Len(t, repo.tokens, 1)
	stored, ok := repo.tokens[digest(res.RefreshToken)]
	require.True(t, ok, "refresh token must be stored hashed")
	assert.NotEqual(t, res.RefreshToken, stored.Token)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginFailures(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{})
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "wrong"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@campus.test", Password: "password"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "gone@campus.test", Password: "password"})
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "password"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	assert.Empty(t, repo.tokens)
}

func TestSingleSessionRevokesPrevious(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{SingleSession: true})
	ctx := context.Background()

	first, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)

	assert.True(t, repo.tokens[digest(first.RefreshToken)].Revoked)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{})
	ctx := context.Background()
	login, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)
	assert.True(t, repo.tokens[digest(login.RefreshToken)].Revoked)
	assert.False(t, repo.tokens[digest(res.RefreshToken)].Revoked)
	assert.Contains(t, repo.audits, models.AuditActionTokenRefresh)
}

func TestRefreshReuseRevokesAllSessions(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{})
	ctx := context.Background()
	login, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)
	rotated, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
	assert.Equal(t, []string{"s1"}, repo.revokedUsers)
	assert.True(t, repo.tokens[digest(rotated.RefreshToken)].Revoked)
	assert.Contains(t, repo.audits, models.AuditActionTokenReuse)
}

func TestRefreshRejectsExpiredAndUnknown(t *testing.T) {
	svc, _ := newAuthFixture(t, AuthConfig{RefreshTokenExpiry: time.Hour})
	ctx := context.Background()
	login, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)

	later := time.Now().UTC().Add(2 * time.Hour)
	svc.now = func() time.Time { return later }
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "forged"})
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func TestLogoutChecksOwner(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{})
	ctx := context.Background()
	login, err := svc.Login(ctx, models.LoginRequest{Email: "asha@campus.test", Password: "password"})
	require.NoError(t, err)

	err = svc.Logout(ctx, login.RefreshToken, "f1", models.LoginRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken, "s1", models.LoginRequest{}))
	assert.True(t, repo.tokens[digest(login.RefreshToken)].Revoked)
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t, AuthConfig{})
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "s1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(ctx, "s1", models.ChangePasswordRequest{OldPassword: "password", NewPassword: "password"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(ctx, "s1", models.ChangePasswordRequest{OldPassword: "password", NewPassword: "newpassword"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["s1"].PasswordHash), []byte("newpassword")))
	assert.Equal(t, []string{"s1"}, repo.revokedUsers)
}

func TestValidateTokenChecks(t *testing.T) {
	svc, _ := newAuthFixture(t, AuthConfig{Issuer: "campus-api", Audience: []string{"campus-web"}})
	issued := time.Now().UTC()

	good, err := svc.signAccess(&models.User{ID: "u1", Role: models.RoleHR}, issued)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(good)
	require.NoError(t, err)
	assert.Equal(t, models.RoleHR, claims.Role)

	badRole, err := svc.signAccess(&models.User{ID: "u1", Role: models.Role("superadmin")}, issued)
	require.NoError(t, err)
	_, err = svc.ValidateToken(badRole)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	other, _ := newAuthFixture(t, AuthConfig{AccessTokenSecret: "other", Issuer: "campus-api", Audience: []string{"campus-web"}})
	foreign, err := other.signAccess(&models.User{ID: "u1", Role: models.RoleAdmin}, issued)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID: "u1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{"campus-web"},
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	signed, err := wrongIssuer.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	svc.now = func() time.Time { return issued.Add(48 * time.Hour) }
	_, err = svc.ValidateToken(good)
	assert.Error(t, err)
}
