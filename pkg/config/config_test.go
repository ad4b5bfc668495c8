package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "campus", cfg.Database.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 2*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 60, cfg.Skills.DefaultPassThreshold)
	assert.Equal(t, "campus", cfg.Mongo.Database)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("SKILL_DEFAULT_PASS_THRESHOLD", 250)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 60, cfg.Skills.DefaultPassThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidateProductionSecrets(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENV", "Production")
	cfg := fromViper(v)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "REPORTS_SIGNED_URL_SECRET")

	cfg.JWT.Secret = strings.Repeat("j", minSecretLength)
	cfg.Reports.SignedURLSecret = cfg.JWT.Secret
	assert.Error(t, cfg.Validate())

	cfg.Reports.SignedURLSecret = strings.Repeat("r", minSecretLength)
	assert.NoError(t, cfg.Validate())
}

func TestValidateDevelopmentDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	require.NoError(t, cfg.Validate())

	cfg.Port = 70000
	cfg.APIPrefix = "api"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "API_PREFIX")
}

func TestDerivedValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("API_PREFIX", "/api/")
	v.Set("JWT_AUDIENCE", "campus-web, campus-mobile")
	v.Set("REPORTS_WORKER_RETRIES", 0)
	cfg := fromViper(v)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, []string{"campus-web", "campus-mobile"}, cfg.JWT.Audience)
	assert.Equal(t, 3, cfg.Reports.WorkerRetries)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
}
