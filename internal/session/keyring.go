package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "carddavsync"

const (
	keyLogin    = "login"
	keyPassword = "password"
	keyToken    = "oauth_token"
)

// Store keeps session secrets in the system keyring, one entry per user and
// secret.
type Store struct {
	ring keyring.Keyring
}

func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// OpenStore opens the keyring. With fileDir set, the encrypted file backend
// is used and unlocked with passphrase; otherwise the platform backends are
// tried in order.
func OpenStore(fileDir, passphrase string) (*Store, error) {
	cfg := keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/carddavsync/keyring",
		FilePasswordFunc:         keyring.FixedStringPrompt(passphrase),
		KeychainTrustApplication: true,
	}
	if fileDir != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = fileDir
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

func itemKey(userID, name string) string {
	return userID + ":" + name
}

// Save stores every non-empty secret of s under its user id.
func (st *Store) Save(s *Secrets) error {
	for name, value := range map[string]string{keyLogin: s.Login, keyPassword: s.Password, keyToken: s.Token} {
		if value == "" {
			continue
		}
		if err := st.ring.Set(keyring.Item{Key: itemKey(s.User, name), Data: []byte(value)}); err != nil {
			return fmt.Errorf("setting %s for user %s: %w", name, s.User, err)
		}
	}
	return nil
}

// Load returns the secrets stored for userID. Missing entries stay empty.
func (st *Store) Load(userID string) (*Secrets, error) {
	s := &Secrets{User: userID}
	for name, dst := range map[string]*string{keyLogin: &s.Login, keyPassword: &s.Password, keyToken: &s.Token} {
		item, err := st.ring.Get(itemKey(userID, name))
		if errors.Is(err, keyring.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting %s for user %s: %w", name, userID, err)
		}
		*dst = string(item.Data)
	}
	return s, nil
}

// Clear removes all secrets of userID.
func (st *Store) Clear(userID string) error {
	for _, name := range []string{keyLogin, keyPassword, keyToken} {
		err := st.ring.Remove(itemKey(userID, name))
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("removing %s for user %s: %w", name, userID, err)
		}
	}
	return nil
}
