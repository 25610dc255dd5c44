package manager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
	"github.com/dmitrijs2005/carddavsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAddressbook_DefaultFlags(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	acc := seedAccount(t, m, "Work")

	id := seedAddressbook(t, m, acc, "Contacts", "https://dav/b1/", models.AddressbookSettings{})

	ab, err := m.Addressbook(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ab.Active)
	assert.True(t, ab.UseCategories)
	assert.False(t, ab.Discovered)
	assert.False(t, ab.Readonly)
	assert.False(t, ab.Template)
	assert.Equal(t, int64(3600), ab.RefreshTime)
	assert.Equal(t, acc, ab.AccountID)
}

func TestInsertAddressbook_ForeignAccount(t *testing.T) {
	e := newEnv(t)
	acc := seedAccount(t, e.manager("u1", Deps{}), "Work")

	other := e.manager("u2", Deps{})
	_, err := other.InsertAddressbook(context.Background(), models.AddressbookSettings{
		AccountID: models.Ptr(acc),
		Name:      models.Ptr("Sneaky"),
		URL:       models.Ptr("https://dav/x/"),
		SyncToken: models.Ptr(""),
	})
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, testutil.Count(t, e.db, rowstore.TableAddressbooks))
}

func TestUpdateAddressbook(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	ctx := context.Background()
	acc := seedAccount(t, m, "Work")
	id := seedAddressbook(t, m, acc, "Contacts", "https://dav/b1/", models.AddressbookSettings{})

	require.NoError(t, m.UpdateAddressbook(ctx, id, models.AddressbookSettings{
		Name:          models.Ptr("Renamed"),
		UseCategories: models.Ptr(false),
		Readonly:      models.Ptr(true),
		RefreshTime:   models.Ptr(int64(600)),
	}))

	ab, err := m.Addressbook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ab.Name)
	assert.Equal(t, int64(600), ab.RefreshTime)
	assert.True(t, ab.Active)
	assert.False(t, ab.UseCategories)
	assert.True(t, ab.Readonly)

	other := e.manager("u2", Deps{})
	require.NoError(t, other.UpdateAddressbook(ctx, id, models.AddressbookSettings{Name: models.Ptr("Hijacked")}))
	ab, err = e.manager("u1", Deps{}).Addressbook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ab.Name)
}

func TestAddressbookIDs_Filters(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	ctx := context.Background()

	acc := seedAccount(t, m, "Work")
	preset, err := m.InsertAccount(ctx, models.AccountSettings{
		AccountName: models.Ptr("Corp"), Username: models.Ptr("%u"), Password: models.Ptr("%p"), PresetName: models.Ptr("corp"),
	})
	require.NoError(t, err)

	discovered := seedAddressbook(t, m, acc, "D", "https://dav/d/", models.AddressbookSettings{Discovered: models.Ptr(true)})
	readonly := seedAddressbook(t, m, acc, "R", "https://dav/r/", models.AddressbookSettings{Discovered: models.Ptr(true), Readonly: models.Ptr(true)})
	inactive := seedAddressbook(t, m, acc, "I", "https://dav/i/", models.AddressbookSettings{Active: models.Ptr(false)})
	tmpl := seedAddressbook(t, m, acc, "%N", "", models.AddressbookSettings{Template: models.Ptr(true)})
	corp := seedAddressbook(t, m, preset, "C", "https://dav/c/", models.AddressbookSettings{Discovered: models.Ptr(true)})

	tests := []struct {
		name    string
		filter  models.Filter
		presets bool
		want    []string
	}{
		{"all", models.FilterAll, false, []string{discovered, readonly, inactive, tmpl, corp}},
		{"regular", models.FilterRegular, false, []string{discovered, readonly, inactive, corp}},
		{"active", models.FilterActive, false, []string{discovered, readonly, corp}},
		{"active-rw", models.FilterActiveRW, false, []string{discovered, corp}},
		{"discovered", models.FilterDiscovered, false, []string{discovered, readonly, corp}},
		{"extra", models.FilterExtra, false, []string{inactive}},
		{"template", models.FilterTemplate, false, []string{tmpl}},
		{"presets only", models.FilterAll, true, []string{corp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.AddressbookIDs(ctx, tt.filter, tt.presets)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	forAccount, err := m.AddressbooksForAccount(ctx, acc, models.FilterDiscovered)
	require.NoError(t, err)
	assert.Len(t, forAccount, 2)
	assert.Contains(t, forAccount, discovered)
	assert.Contains(t, forAccount, readonly)
}

func TestDeleteAddressbooks_RemovesCachedData(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	ctx := context.Background()
	acc := seedAccount(t, m, "Work")
	b1 := seedAddressbook(t, m, acc, "A", "https://dav/a/", models.AddressbookSettings{})
	b2 := seedAddressbook(t, m, acc, "B", "https://dav/b/", models.AddressbookSettings{})
	seedCards(t, e.gw, b1)
	seedCards(t, e.gw, b2)

	require.NoError(t, m.DeleteAddressbooks(ctx, []string{b1}, DeleteOptions{}))

	ids, err := m.AddressbookIDs(ctx, models.FilterAll, false)
	require.NoError(t, err)
	assert.Equal(t, []string{b2}, ids)
	assert.Equal(t, 1, testutil.Count(t, e.db, rowstore.TableContacts))
	assert.Equal(t, 1, testutil.Count(t, e.db, rowstore.TableGroups))
	assert.Equal(t, 1, testutil.Count(t, e.db, rowstore.TableGroupUser))
	assert.Equal(t, 1, testutil.Count(t, e.db, rowstore.TableXSubtypes))
}

func TestDeleteAddressbooks_ForeignIDKeepsEverything(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	acc := seedAccount(t, m, "Work")
	mine := seedAddressbook(t, m, acc, "A", "https://dav/a/", models.AddressbookSettings{})

	theirs := seedAddressbook(t, e.manager("u2", Deps{}), seedAccount(t, e.manager("u2", Deps{}), "Other"),
		"B", "https://dav/b/", models.AddressbookSettings{})

	err := m.DeleteAddressbooks(context.Background(), []string{mine, theirs}, DeleteOptions{})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, 2, testutil.Count(t, e.db, rowstore.TableAddressbooks))
	assert.False(t, e.gw.InTransaction())
}

func TestClearCache_KeepsAddressbookAndResetsSyncState(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	ctx := context.Background()
	acc := seedAccount(t, m, "Work")
	id := seedAddressbook(t, m, acc, "A", "https://dav/a/", models.AddressbookSettings{
		LastUpdated: models.Ptr(int64(5000)),
		SyncToken:   models.Ptr("tok-9"),
	})
	seedCards(t, e.gw, id)

	require.NoError(t, m.ClearCache(ctx, id))

	ab, err := m.Addressbook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ab.LastUpdated)
	assert.Equal(t, "", ab.SyncToken)
	assert.Equal(t, 0, testutil.Count(t, e.db, rowstore.TableContacts))
	assert.Equal(t, 0, testutil.Count(t, e.db, rowstore.TableGroupUser))
}

func TestSaveTemplate(t *testing.T) {
	e := newEnv(t)
	m := e.manager("u1", Deps{})
	ctx := context.Background()
	acc := seedAccount(t, m, "Work")

	tmpl, err := m.TemplateForAccount(ctx, acc)
	require.NoError(t, err)
	assert.Nil(t, tmpl)

	defaults := models.AddressbookSettings{Name: models.Ptr("%N"), RefreshTime: models.Ptr(int64(3600))}
	got, err := m.TemplateSettings(ctx, acc, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	id, err := m.SaveTemplate(ctx, acc,
		models.AddressbookSettings{Name: models.Ptr("%a (%N)"), Readonly: models.Ptr(false)},
		models.AddressbookSettings{Readonly: models.Ptr(true)})
	require.NoError(t, err)

	tmpl, err = m.TemplateForAccount(ctx, acc)
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, id, tmpl.ID)
	assert.Equal(t, "%a (%N)", tmpl.Name)
	assert.True(t, tmpl.Template)
	assert.True(t, tmpl.Readonly, "fixed attributes win on creation")
	assert.Empty(t, tmpl.URL)

	again, err := m.SaveTemplate(ctx, acc, models.AddressbookSettings{RefreshTime: models.Ptr(int64(900))}, models.AddressbookSettings{})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err = m.TemplateSettings(ctx, acc, defaults)
	require.NoError(t, err)
	assert.Equal(t, "%a (%N)", *got.Name)
	assert.Equal(t, int64(900), *got.RefreshTime)
	assert.True(t, *got.Readonly)

	regular, err := m.AddressbookIDs(ctx, models.FilterRegular, false)
	require.NoError(t, err)
	assert.Empty(t, regular)
}
