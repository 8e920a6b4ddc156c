package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-donations/perk"
)

const sample = `
app:
  port: 9090
  publicUrl: https://donate.example.com
  sessionSecret: s3cret
  captureEvery: 5m
discord:
  guildId: 123456789012345678
  notificationChannelId: '987'
  expireRolesEvery: 30m
cftools:
  applicationId: app
  secret: secret
serverNames:
  server-a: 'Chernarus #1'
packages:
  - id: 1
    name: Supporter
    price:
      amount: '5.00'
      currency: EUR
      type: FIXED
    perks:
      - type: PRIORITY_QUEUE
        cftools:
          serverApiId: server-a
        amountInDays: 30
      - type: DISCORD_ROLE
        roles: [111, '222']
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.App.Port)
	require.Equal(t, 5*time.Minute, cfg.App.CaptureEvery)
	require.Equal(t, 72*time.Hour, cfg.App.PaymentTimeout, "default kept")
	require.Equal(t, 30*time.Minute, cfg.Discord.ExpireRolesEvery)
	require.Equal(t, "Chernarus #1", cfg.ServerNames.Name("server-a"))
	require.Len(t, cfg.Packages, 1)
	require.Equal(t, perk.TypePriorityQueue, cfg.Packages[0].Perks[0].Type)
	require.Equal(t, "server-a", cfg.Packages[0].Perks[0].CFTools.ServerAPIID)
	require.Equal(t, []string{"111", "222"}, cfg.Packages[0].Perks[1].Roles)
	require.Equal(t, "sqlite:donations.db", cfg.Database.DSN)
	require.False(t, cfg.Redis.Enabled())

	u, err := cfg.PublicURL()
	require.NoError(t, err)
	require.Equal(t, "donate.example.com", u.Host)
}

func TestLoadWarnsAboutNumericSnowflakes(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	require.Len(t, cfg.Warnings, 2)
	require.Contains(t, cfg.Warnings[0], "discord guild id")
	require.Contains(t, cfg.Warnings[1], "discord role perk role")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DONATIONS_SESSION_SECRET", "from-env")
	t.Setenv("DONATIONS_PORT", "7000")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.App.SessionSecret)
	require.Equal(t, 7000, cfg.App.Port)
	require.True(t, cfg.Redis.Enabled())

	t.Setenv("DONATIONS_PORT", "many")
	_, err = Load(writeConfig(t, sample))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.App.PublicURL = "https://donate.example.com"
	valid.App.SessionSecret = "secret"
	require.NoError(t, valid.Validate())

	noSecret := valid
	noSecret.App.SessionSecret = ""
	require.Error(t, noSecret.Validate())

	relative := valid
	relative.App.PublicURL = "/donate"
	require.Error(t, relative.Validate())

	ftp := valid
	ftp.App.PublicURL = "ftp://donate.example.com"
	require.Error(t, ftp.Validate())

	env := valid
	env.PayPal.Environment = "production"
	require.Error(t, env.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
