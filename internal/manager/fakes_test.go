package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
	"github.com/dmitrijs2005/carddavsync/internal/testutil"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type fakeConns struct {
	err   error
	calls int
}

func (f *fakeConns) Connection(acc models.Account) (*models.Connection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Connection{
		DiscoveryURL: acc.DiscoveryURL,
		Username:     acc.Username,
		Password:     acc.Password,
		TLSVerify:    !acc.SSLNoVerify,
	}, nil
}

type fakeDiscoverer struct {
	books []models.ServerAddressbook
	err   error
	calls int
	conn  *models.Connection
}

func (f *fakeDiscoverer) DiscoverAddressbooks(ctx context.Context, conn *models.Connection) ([]models.ServerAddressbook, error) {
	f.calls++
	f.conn = conn
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

type fakeSyncer struct {
	sync func(ctx context.Context, url, token string) (*models.SyncResult, error)
}

func (f *fakeSyncer) Sync(ctx context.Context, conn *models.Connection, url, syncToken string) (*models.SyncResult, error) {
	return f.sync(ctx, url, syncToken)
}

type fakeApplier struct {
	results []*models.SyncResult
	err     error
}

func (f *fakeApplier) Apply(ctx context.Context, abook *models.Addressbook, res *models.SyncResult) error {
	f.results = append(f.results, res)
	return f.err
}

// failingGateway fails inserts into one table.
type failingGateway struct {
	rowstore.Gateway
	table string
}

var errInsertFailed = errors.New("insert failed")

func (g *failingGateway) Insert(ctx context.Context, table string, cols []string, vals []any) (string, error) {
	if table == g.table {
		return "", errInsertFailed
	}
	return g.Gateway.Insert(ctx, table, cols, vals)
}

func fixedClock(sec int64) func() time.Time {
	return func() time.Time { return time.Unix(sec, 0) }
}

type env struct {
	gw *rowstore.SQLGateway
	db *sqlx.DB
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gw, db := testutil.NewGateway(t)
	return &env{gw: gw, db: db}
}

func (e *env) manager(user string, d Deps) *Manager {
	return New(e.gw, user, d)
}

func seedAccount(t *testing.T, m *Manager, name string) string {
	t.Helper()
	id, err := m.InsertAccount(context.Background(), models.AccountSettings{
		AccountName:  models.Ptr(name),
		Username:     models.Ptr("bob"),
		Password:     models.Ptr("secret"),
		DiscoveryURL: models.Ptr("https://dav.example.com/"),
	})
	require.NoError(t, err)
	return id
}

func seedAddressbook(t *testing.T, m *Manager, accountID, name, url string, s models.AddressbookSettings) string {
	t.Helper()
	s = models.AddressbookSettings{SyncToken: models.Ptr("")}.With(s).With(models.AddressbookSettings{
		AccountID: models.Ptr(accountID),
		Name:      models.Ptr(name),
		URL:       models.Ptr(url),
	})
	id, err := m.InsertAddressbook(context.Background(), s)
	require.NoError(t, err)
	return id
}

// seedCards stores a contact, a group with the contact as member and an
// xsubtype row for the addressbook.
func seedCards(t *testing.T, gw rowstore.Gateway, abookID string) {
	t.Helper()
	ctx := context.Background()

	contactID, err := gw.Insert(ctx, rowstore.TableContacts,
		[]string{"abook_id", "name", "email", "vcard", "etag", "uri", "cuid"},
		[]any{abookID, "Alice", "alice@example.com", "BEGIN:VCARD\r\nEND:VCARD\r\n", "e1", "/c/" + abookID + "/alice.vcf", "alice"})
	require.NoError(t, err)

	groupID, err := gw.Insert(ctx, rowstore.TableGroups,
		[]string{"abook_id", "name", "vcard", "etag", "uri", "cuid"},
		[]any{abookID, "Friends", "", "", "", ""})
	require.NoError(t, err)

	_, err = gw.Insert(ctx, rowstore.TableGroupUser, []string{"group_id", "contact_id"}, []any{groupID, contactID})
	require.NoError(t, err)

	_, err = gw.Insert(ctx, rowstore.TableXSubtypes, []string{"abook_id", "typename", "subtype"}, []any{abookID, "email", "work"})
	require.NoError(t, err)
}
