package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/dbx"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
)

// DeleteOptions tune DeleteAddressbooks. With SkipTransaction the caller
// owns the enclosing transaction and its rollback. With CacheOnly the cached
// cards are dropped and the sync state is reset, but the addressbooks stay.
type DeleteOptions struct {
	SkipTransaction bool
	CacheOnly       bool
}

func (m *Manager) addressbookRows(ctx context.Context) ([]abookRow, error) {
	return m.abooks.get(func() ([]abookRow, error) {
		accountIDs, err := m.AccountIDs(ctx, false)
		if err != nil {
			return nil, err
		}
		if len(accountIDs) == 0 {
			return nil, nil
		}

		var rows []abookRow
		if err := m.gw.Select(ctx, &rows, rowstore.TableAddressbooks, rowstore.Filter{"account_id": accountIDs}); err != nil {
			return nil, err
		}
		return rows, nil
	})
}

func (m *Manager) addressbookRow(ctx context.Context, id string) (*abookRow, error) {
	rows, err := m.addressbookRows(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no carddav addressbook with id %q", common.ErrorNotFound, id)
}

func (m *Manager) addressbookRowsForAccount(ctx context.Context, accountID string, filter models.Filter) ([]abookRow, error) {
	if _, err := m.accountRow(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := m.addressbookRows(ctx)
	if err != nil {
		return nil, err
	}

	var out []abookRow
	for _, r := range rows {
		if r.AccountID == accountID && filter.Matches(r.flags()) {
			out = append(out, r)
		}
	}
	return out, nil
}

// AddressbookIDs lists the addressbooks of the principal matching filter,
// optionally only those of preset accounts.
func (m *Manager) AddressbookIDs(ctx context.Context, filter models.Filter, presetsOnly bool) ([]string, error) {
	rows, err := m.addressbookRows(ctx)
	if err != nil {
		return nil, err
	}

	var presetAccounts []string
	if presetsOnly {
		if presetAccounts, err = m.AccountIDs(ctx, true); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if presetsOnly && !slices.Contains(presetAccounts, r.AccountID) {
			continue
		}
		if filter.Matches(r.flags()) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *Manager) Addressbook(ctx context.Context, id string) (*models.Addressbook, error) {
	row, err := m.addressbookRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// AddressbooksForAccount returns the addressbooks of an owned account
// matching filter, keyed by id.
func (m *Manager) AddressbooksForAccount(ctx context.Context, accountID string, filter models.Filter) (map[string]*models.Addressbook, error) {
	rows, err := m.addressbookRowsForAccount(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*models.Addressbook, len(rows))
	for _, r := range rows {
		out[r.ID] = r.toModel()
	}
	return out, nil
}

// TemplateForAccount returns the template addressbook of the account, or
// nil if it has none.
func (m *Manager) TemplateForAccount(ctx context.Context, accountID string) (*models.Addressbook, error) {
	rows, err := m.addressbookRowsForAccount(ctx, accountID, models.FilterTemplate)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].toModel(), nil
}

// InsertAddressbook stores a new addressbook in an account of the principal
// and returns its id.
func (m *Manager) InsertAddressbook(ctx context.Context, s models.AddressbookSettings) (string, error) {
	p, err := abookSpec.prepare(s.Values(), true)
	if err != nil {
		return "", err
	}
	if _, err := m.accountRow(ctx, *s.AccountID); err != nil {
		return "", err
	}

	cols, vals := p.columns(models.AddressbookFlagsDefault)

	defer m.abooks.invalidate()
	id, err := m.gw.Insert(ctx, rowstore.TableAddressbooks, cols, vals)
	if err != nil {
		return "", err
	}

	m.logger.Debug(ctx, "addressbook inserted", "abook_id", id, "account_id", *s.AccountID)
	return id, nil
}

// UpdateAddressbook changes the given settings of an addressbook. Nothing
// happens when there is nothing to change or the addressbook does not belong
// to the principal.
func (m *Manager) UpdateAddressbook(ctx context.Context, id string, s models.AddressbookSettings) error {
	p, err := abookSpec.prepare(s.Values(), false)
	if err != nil {
		return err
	}
	if p.empty() {
		return nil
	}

	row, err := m.addressbookRow(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	accountIDs, err := m.AccountIDs(ctx, false)
	if err != nil {
		return err
	}

	cols, vals := p.columns(row.flags())

	defer m.abooks.invalidate()
	_, err = m.gw.Update(ctx, rowstore.TableAddressbooks, rowstore.Filter{"id": id, "account_id": accountIDs}, cols, vals)
	return err
}

// DeleteAddressbooks removes the addressbooks and everything cached for
// them. Every id must belong to the principal, otherwise nothing is deleted.
// Contact data is removed explicitly, since not every backend cascades.
func (m *Manager) DeleteAddressbooks(ctx context.Context, ids []string, opts DeleteOptions) error {
	if len(ids) == 0 {
		return nil
	}
	defer m.abooks.invalidate()

	run := func(ctx context.Context) error {
		owned, err := m.AddressbookIDs(ctx, models.FilterAll, false)
		if err != nil {
			return err
		}
		var foreign []string
		for _, id := range ids {
			if !slices.Contains(owned, id) {
				foreign = append(foreign, id)
			}
		}
		if len(foreign) > 0 {
			return fmt.Errorf("%w: addressbook ids %q do not belong to the current user", common.ErrorValidation, foreign)
		}

		byAbook := rowstore.Filter{"abook_id": ids}

		if _, err := m.gw.Delete(ctx, rowstore.TableXSubtypes, byAbook); err != nil {
			return err
		}

		var groups []struct {
			ID string `db:"id"`
		}
		if err := m.gw.Select(ctx, &groups, rowstore.TableGroups, byAbook, "id"); err != nil {
			return err
		}
		if len(groups) > 0 {
			groupIDs := make([]string, len(groups))
			for i, g := range groups {
				groupIDs[i] = g.ID
			}
			if _, err := m.gw.Delete(ctx, rowstore.TableGroupUser, rowstore.Filter{"group_id": groupIDs}); err != nil {
				return err
			}
		}

		if _, err := m.gw.Delete(ctx, rowstore.TableGroups, byAbook); err != nil {
			return err
		}
		if _, err := m.gw.Delete(ctx, rowstore.TableContacts, byAbook); err != nil {
			return err
		}

		if opts.CacheOnly {
			_, err = m.gw.Update(ctx, rowstore.TableAddressbooks, rowstore.Filter{"id": ids},
				[]string{models.FieldLastUpdated, models.FieldSyncToken}, []any{int64(0), ""})
		} else {
			_, err = m.gw.Delete(ctx, rowstore.TableAddressbooks, rowstore.Filter{"id": ids})
		}
		return err
	}

	var err error
	if opts.SkipTransaction {
		err = run(ctx)
	} else {
		err = dbx.WithTx(ctx, m.gw, false, run)
	}
	if err != nil {
		return err
	}

	m.logger.Debug(ctx, "addressbooks deleted", "abook_ids", ids, "cache_only", opts.CacheOnly)
	return nil
}

// ClearCache drops the cached cards of an addressbook and resets its sync
// state so the next resync starts from scratch.
func (m *Manager) ClearCache(ctx context.Context, id string) error {
	return m.DeleteAddressbooks(ctx, []string{id}, DeleteOptions{CacheOnly: true})
}
