package mail

import (
	"context"
	"time"

	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// Session tracks the login state of one Driver.
type Session struct {
	driver         Driver
	creds          Credentials
	sessionTimeout time.Duration
	loginTimeout   time.Duration
	now            func() time.Time

	loggedIn bool
	loginAt  time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(d Driver, cfg config.WebmailConfig, opts ...SessionOption) *Session {
	s := &Session{
		driver:         d,
		creds:          Credentials{URL: cfg.URL, Username: cfg.Username, Password: cfg.Password},
		sessionTimeout: cfg.SessionTimeout,
		loginTimeout:   cfg.LoginTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsLoggedIn probes the UI. Probe failures count as logged out.
func (s *Session) IsLoggedIn(ctx context.Context) bool {
	ok, err := s.driver.IsLoggedIn(ctx)
	if err != nil {
		logger.DebugLog(ctx, "login probe failed: %v", err)
		return false
	}
	return ok
}

// EnsureLoggedIn logs in unless the UI already shows a session.
func (s *Session) EnsureLoggedIn(ctx context.Context) error {
	if s.IsLoggedIn(ctx) {
		if !s.loggedIn {
			s.loggedIn = true
			s.loginAt = s.now()
		}
		return nil
	}
	return s.Login(ctx)
}

// Login performs the login transition.
func (s *Session) Login(ctx context.Context) error {
	lctx, cancel := context.WithTimeout(ctx, s.loginTimeout)
	defer cancel()

	s.loggedIn = false
	if err := s.driver.Login(lctx, s.creds, s.loginTimeout); err != nil {
		return domain.Wrap(domain.ErrSession, "login", err)
	}
	s.loggedIn = true
	s.loginAt = s.now()
	logger.InfoLog(ctx, "logged in to %s as %s", s.creds.URL, s.creds.Username)
	return nil
}

// Refresh logs in again once the session is older than the configured timeout.
func (s *Session) Refresh(ctx context.Context) error {
	if s.loggedIn && s.now().Sub(s.loginAt) <= s.sessionTimeout {
		return nil
	}
	return s.Login(ctx)
}

// LoggedIn reports the recorded state without touching the UI.
func (s *Session) LoggedIn() bool { return s.loggedIn }
