package mail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/mail"
	"github.com/locvowork/mywork_tools/internal/mail/mailtest"
)

func webmailConfig() config.WebmailConfig {
	return config.WebmailConfig{
		URL:            "https://mail.example.com/",
		Username:       "yamada",
		Password:       "pw",
		SessionTimeout: 30 * time.Minute,
		LoginTimeout:   10 * time.Second,
		SkipSenders:    []string{"Slack"},
	}
}

func TestSession_EnsureLoggedIn(t *testing.T) {
	d := mailtest.New(nil)
	s := mail.NewSession(d, webmailConfig())
	ctx := context.Background()

	require.NoError(t, s.EnsureLoggedIn(ctx))
	assert.Equal(t, 1, d.Logins)
	assert.True(t, s.LoggedIn())

	require.NoError(t, s.EnsureLoggedIn(ctx))
	assert.Equal(t, 1, d.Logins, "an active session is reused")
}

func TestSession_ProbeErrorMeansLoggedOut(t *testing.T) {
	d := mailtest.New(nil)
	d.LoggedIn = true
	d.ProbeErr = errors.New("page crashed")
	s := mail.NewSession(d, webmailConfig())

	assert.False(t, s.IsLoggedIn(context.Background()))
	require.NoError(t, s.EnsureLoggedIn(context.Background()))
	assert.Equal(t, 1, d.Logins)
}

func TestSession_LoginFailure(t *testing.T) {
	d := mailtest.New(nil)
	d.LoginErr = errors.New("timeout waiting for body[data-page=MailList]")
	s := mail.NewSession(d, webmailConfig())

	err := s.EnsureLoggedIn(context.Background())
	assert.ErrorIs(t, err, domain.ErrSession)
	assert.False(t, s.LoggedIn())
}

func TestSession_Refresh(t *testing.T) {
	now := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)
	d := mailtest.New(nil)
	s := mail.NewSession(d, webmailConfig(), mail.WithSessionClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.Login(ctx))
	assert.Equal(t, 1, d.Logins)

	now = now.Add(29 * time.Minute)
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 1, d.Logins)

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 2, d.Logins)
}
