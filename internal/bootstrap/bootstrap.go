// Package bootstrap wires the configured components together for the
// command line and the daemon.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/carddavsync/internal/carddav"
	"github.com/dmitrijs2005/carddavsync/internal/config"
	"github.com/dmitrijs2005/carddavsync/internal/contacts"
	"github.com/dmitrijs2005/carddavsync/internal/credentials"
	"github.com/dmitrijs2005/carddavsync/internal/cryptox"
	"github.com/dmitrijs2005/carddavsync/internal/filex"
	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/presets"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
	"github.com/dmitrijs2005/carddavsync/internal/session"
	"github.com/jmoiron/sqlx"
)

// SecretLoader loads the session secrets of a user.
type SecretLoader interface {
	Load(userID string) (*session.Secrets, error)
	Save(s *session.Secrets) error
	Clear(userID string) error
}

// Env holds the process-wide components. Managers are created per user
// from it.
type Env struct {
	Config    *config.Config
	Logger    logging.Logger
	DB        *sqlx.DB
	Gateway   *rowstore.SQLGateway
	Passwords *cryptox.PasswordCodec
	Secrets   SecretLoader
	DAV       *carddav.Service
	Contacts  *contacts.Store
	Policy    *presets.Policy
}

// openSecrets is a test seam for session.OpenStore.
var openSecrets = func(dir, passphrase string) (SecretLoader, error) {
	return session.OpenStore(dir, passphrase)
}

// Open builds the environment described by cfg. Logs go to w. A keyring
// that cannot be opened is logged and leaves Secrets nil, so placeholders
// bound to the login resolve to empty strings.
func Open(ctx context.Context, cfg *config.Config, w io.Writer) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	passwords, err := cryptox.NewPasswordCodec(cfg.PasswordScheme, cfg.PasswordSecret)
	if err != nil {
		return nil, fmt.Errorf("password codec: %w", err)
	}

	policy, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}

	db, err := rowstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	gw := rowstore.NewSQLGateway(db, cfg.TablePrefix)

	env := &Env{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Gateway:   gw,
		Passwords: passwords,
		DAV:       carddav.NewService(carddav.WithTimeout(cfg.HTTPTimeout), carddav.WithLogger(logger)),
		Contacts:  contacts.NewStore(gw, logger),
		Policy:    policy,
	}

	if cfg.KeyringDir != "" {
		store, err := openKeyring(cfg.KeyringDir, cfg.KeyringPassphrase)
		if err != nil {
			logger.Warn(ctx, "keyring unavailable, running without session secrets", "error", err)
		} else {
			env.Secrets = store
		}
	}

	return env, nil
}

func openKeyring(dir, passphrase string) (SecretLoader, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return openSecrets(abs, passphrase)
}

// Session returns the stored session of userID, or an empty one.
func (e *Env) Session(userID string) (*session.Secrets, error) {
	if e.Secrets == nil {
		return &session.Secrets{User: userID}, nil
	}
	return e.Secrets.Load(userID)
}

// Manager returns a manager bound to userID together with the session its
// connections are resolved with.
func (e *Env) Manager(userID string) (*manager.Manager, *session.Secrets, error) {
	sess, err := e.Session(userID)
	if err != nil {
		return nil, nil, err
	}

	m := manager.New(e.Gateway, userID, manager.Deps{
		Passwords:   e.Passwords,
		Connections: credentials.NewResolver(sess),
		Discoverer:  e.DAV,
		Syncer:      e.DAV,
		Contacts:    e.Contacts,
		Logger:      e.Logger,
	})
	return m, sess, nil
}

func (e *Env) Close() error {
	return e.DB.Close()
}
