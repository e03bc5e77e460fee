package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/locvowork/mywork_tools/internal/config"
)

const serviceName = "mywork-tools"

// Keys under which passwords are stored.
const (
	WebmailKind  = "webmail"
	DocStoreKind = "docstore"
)

// Store reads and writes passwords in the OS keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the first available system keyring.
func Open(cfg config.KeyringConfig) (*Store, error) {
	ring, err := keyring.Open(ringConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

func ringConfig(cfg config.KeyringConfig) keyring.Config {
	prompt := keyring.TerminalPrompt
	if cfg.FilePassword != "" {
		prompt = keyring.FixedStringPrompt(cfg.FilePassword)
	}
	return keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         prompt,
		KeychainTrustApplication: true,
	}
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Key builds the keyring key for a kind ("webmail", "docstore") and user.
func Key(kind, user string) string {
	return kind + ":" + user
}

// Get retrieves a password. A missing item returns "" and no error.
func (s *Store) Get(kind, user string) (string, error) {
	item, err := s.ring.Get(Key(kind, user))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", Key(kind, user), err)
	}
	return string(item.Data), nil
}

// Set stores a password.
func (s *Store) Set(kind, user, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:   Key(kind, user),
		Data:  []byte(password),
		Label: serviceName + " " + kind,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", Key(kind, user), err)
	}
	return nil
}

// Fill returns current when it is set, otherwise the stored password.
func (s *Store) Fill(current, kind, user string) (string, error) {
	if current != "" || user == "" {
		return current, nil
	}
	return s.Get(kind, user)
}
