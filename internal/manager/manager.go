// Package manager implements the addressbook manager: account and
// addressbook repositories of one principal, cascading deletes, discovery
// reconciliation and resync.
//
// A Manager is bound to one principal and one gateway for the duration of a
// request and is not safe for concurrent use. Reads are served from two
// lazily loaded caches which are dropped on every mutation, successful or
// not.
package manager

import (
	"context"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/dbx"
	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
)

type PasswordCodec interface {
	Encrypt(clear string) (string, error)
	Decrypt(stored string) (string, error)
}

// ConnectionBuilder resolves the stored credentials of an account.
type ConnectionBuilder interface {
	Connection(acc models.Account) (*models.Connection, error)
}

type Discoverer interface {
	DiscoverAddressbooks(ctx context.Context, conn *models.Connection) ([]models.ServerAddressbook, error)
}

type Syncer interface {
	Sync(ctx context.Context, conn *models.Connection, url, syncToken string) (*models.SyncResult, error)
}

// ContactApplier stores the cards of a sync result. It runs inside the
// transaction opened by the manager.
type ContactApplier interface {
	Apply(ctx context.Context, abook *models.Addressbook, res *models.SyncResult) error
}

// Deps are the collaborators of a Manager. Only Connections, Discoverer,
// Syncer and Contacts may be left nil when the corresponding operations are
// not used.
type Deps struct {
	Passwords   PasswordCodec
	Connections ConnectionBuilder
	Discoverer  Discoverer
	Syncer      Syncer
	Contacts    ContactApplier
	Logger      logging.Logger
	Now         func() time.Time
}

type Manager struct {
	gw        rowstore.Gateway
	principal string

	passwords PasswordCodec
	conns     ConnectionBuilder
	discover  Discoverer
	syncer    Syncer
	contacts  ContactApplier
	logger    logging.Logger
	now       func() time.Time

	accounts cache[accountRow]
	abooks   cache[abookRow]
}

func New(gw rowstore.Gateway, principal string, d Deps) *Manager {
	m := &Manager{
		gw:        gw,
		principal: principal,
		passwords: d.Passwords,
		conns:     d.Connections,
		discover:  d.Discoverer,
		syncer:    d.Syncer,
		contacts:  d.Contacts,
		logger:    d.Logger,
		now:       d.Now,
	}
	if m.passwords == nil {
		m.passwords = plainPasswords{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.logger = logging.ForModule(m.logger, "manager", "user_id", principal)
	return m
}

// Principal returns the user id the manager is bound to.
func (m *Manager) Principal() string {
	return m.principal
}

func (m *Manager) invalidate() {
	m.accounts.invalidate()
	m.abooks.invalidate()
}

// inTx runs fn in a gateway transaction and drops both caches afterwards.
func (m *Manager) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	defer m.invalidate()
	return dbx.WithTx(ctx, m.gw, false, fn)
}

type plainPasswords struct{}

func (plainPasswords) Encrypt(clear string) (string, error)  { return clear, nil }
func (plainPasswords) Decrypt(stored string) (string, error) { return stored, nil }
