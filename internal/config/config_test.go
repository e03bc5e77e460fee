package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSettings = `
webmail:
  url: https://mail.example.com/
  username: yamada
  session_timeout: 15m
browser:
  headless: false
docstore:
  driver: sqlite
  dsn: ":memory:"
google_sheet:
  spreadsheet_key: abc123
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSettings), 0o600))
	t.Setenv("WEBMAIL__PASSWORD", "s3cret")
	t.Setenv("KEYRING__FILE_PASSWORD", "file-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com/", cfg.Webmail.URL)
	assert.Equal(t, "s3cret", cfg.Webmail.Password)
	assert.Equal(t, 15*time.Minute, cfg.Webmail.SessionTimeout)
	assert.Equal(t, 10*time.Second, cfg.Webmail.LoginTimeout)
	assert.Equal(t, []string{"Slack"}, cfg.Webmail.SkipSenders)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, DriverSQLite, cfg.DocStore.Driver)
	assert.Equal(t, "Timecard!A2:F", cfg.GoogleSheet.Range)
	assert.True(t, cfg.GoogleSheet.SSLCertificateValidation)
	assert.Equal(t, "T4", cfg.Attendance.StampCell)
	assert.Equal(t, 300, cfg.Stamp.Size)
	assert.False(t, cfg.Elastic.Enabled())
	assert.Equal(t, "file-key", cfg.Keyring.FilePassword)
	assert.Equal(t, "~/.config/mywork-tools/credentials", cfg.Keyring.FileDir)

	require.NoError(t, cfg.Webmail.Validate())
	require.NoError(t, cfg.DocStore.Validate())
	require.NoError(t, cfg.GoogleSheet.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverSurrealDB, cfg.DocStore.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Address())
}

func TestSectionValidation(t *testing.T) {
	wm := WebmailConfig{URL: "https://mail.example.com/", Username: "yamada"}
	assert.Error(t, wm.Validate(), "password and timeouts are required")

	ds := DocStoreConfig{Driver: "mongo"}
	assert.Error(t, ds.Validate())

	ds = DocStoreConfig{Driver: DriverPostgres}
	assert.Error(t, ds.Validate(), "postgres needs a dsn")

	ds = DocStoreConfig{Driver: DriverDatastore, ProjectID: "proj"}
	assert.NoError(t, ds.Validate())
}
