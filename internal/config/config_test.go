package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "./data/currentsee.db", cfg.DBPath)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 400, cfg.PreviewMaxDim)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.DistributionEnabled)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.True(t, cfg.Rates().USDPerSolar.Equal(decimal.NewFromInt(136000)))
	assert.True(t, cfg.Rates().KWhPerSolar.Equal(decimal.NewFromInt(4913)))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "JSON")
	t.Setenv("MEMBERS_FILE", "/tmp/members.json")
	t.Setenv("DISTRIBUTION_TIMEZONE", "America/New_York")
	t.Setenv("SOLAR_USD_VALUE", "100.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverJSON, cfg.StoreDriver)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.True(t, cfg.Rates().USDPerSolar.Equal(decimal.RequireFromString("100.5")))
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "mongo"},
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_DRIVER": "postgres"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing secret in production",
			env:     map[string]string{"APP_ENV": "production"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short secret",
			env:     map[string]string{"JWT_SECRET": "short"},
			wantErr: "at least 32",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"DISTRIBUTION_TIMEZONE": "Mars/Olympus"},
			wantErr: "DISTRIBUTION_TIMEZONE",
		},
		{
			name:    "negative rate",
			env:     map[string]string{"KWH_PER_SOLAR": "-1"},
			wantErr: "invalid SOLAR rates",
		},
		{
			name:    "zero preview size",
			env:     map[string]string{"PREVIEW_MAX_DIM": "0"},
			wantErr: "PREVIEW_MAX_DIM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
