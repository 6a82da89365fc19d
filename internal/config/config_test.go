package config

import (
	"testing"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database:          Database{Driver: "sqlite", URL: "test.db"},
		Expiry:            Expiry{Schedule: "@every 24h", NoticeDays: 3},
		Timezone:          "UTC",
		DispatchQueueSize: 8,
		Discord:           Discord{Token: "token", GuildID: "guild", RoleID: "role"},
		Midtrans:          Midtrans{ServerKey: "key", Environment: "sandbox"},
	}
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("MIDTRANS_SERVER_KEY", "SB-key")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	assert.Equal(t, "abc", cfg.Discord.Token)
	assert.Equal(t, "SB-key", cfg.Midtrans.ServerKey)
	assert.Equal(t, "sandbox", cfg.Midtrans.Environment)
	assert.False(t, cfg.Midtrans.VerifySignature)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "@every 24h", cfg.Expiry.Schedule)
	assert.Equal(t, 3, cfg.Expiry.NoticeDays)
	assert.Equal(t, "Asia/Jakarta", cfg.Timezone)
	assert.Equal(t, 64, cfg.DispatchQueueSize)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing token", func(c *Config) { c.Discord.Token = "" }},
		{"missing guild", func(c *Config) { c.Discord.GuildID = "" }},
		{"missing role", func(c *Config) { c.Discord.RoleID = "" }},
		{"missing server key", func(c *Config) { c.Midtrans.ServerKey = "" }},
		{"bad midtrans env", func(c *Config) { c.Midtrans.Environment = "staging" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"empty dsn", func(c *Config) { c.Database.URL = "" }},
		{"zero notice days", func(c *Config) { c.Expiry.NoticeDays = 0 }},
		{"zero queue", func(c *Config) { c.DispatchQueueSize = 0 }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
