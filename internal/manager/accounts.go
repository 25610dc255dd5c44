package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
)

func (m *Manager) accountRows(ctx context.Context) ([]accountRow, error) {
	return m.accounts.get(func() ([]accountRow, error) {
		var rows []accountRow
		if err := m.gw.Select(ctx, &rows, rowstore.TableAccounts, rowstore.Filter{"user_id": m.principal}); err != nil {
			return nil, err
		}
		return rows, nil
	})
}

func (m *Manager) accountRow(ctx context.Context, id string) (*accountRow, error) {
	rows, err := m.accountRows(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no carddav account with id %q", common.ErrorNotFound, id)
}

// AccountIDs lists the accounts of the principal, optionally only those
// created from an admin preset.
func (m *Manager) AccountIDs(ctx context.Context, presetsOnly bool) ([]string, error) {
	rows, err := m.accountRows(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if presetsOnly && r.PresetName.String == "" {
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Account returns the account with its password decrypted.
func (m *Manager) Account(ctx context.Context, id string) (*models.Account, error) {
	row, err := m.accountRow(ctx, id)
	if err != nil {
		return nil, err
	}

	acc := row.toModel()
	if acc.Password, err = m.passwords.Decrypt(row.Password); err != nil {
		return nil, fmt.Errorf("account %q: %w", id, err)
	}
	return acc, nil
}

func (m *Manager) encryptPassword(pw *string) (*string, error) {
	if pw == nil {
		return nil, nil
	}
	enc, err := m.passwords.Encrypt(*pw)
	if err != nil {
		return nil, fmt.Errorf("encrypting password: %w", err)
	}
	return &enc, nil
}

// InsertAccount stores a new account for the principal and returns its id.
func (m *Manager) InsertAccount(ctx context.Context, s models.AccountSettings) (string, error) {
	p, err := accountSpec.prepare(s.Values(), true)
	if err != nil {
		return "", err
	}
	if err := m.setPassword(&p, s.Password); err != nil {
		return "", err
	}

	cols, vals := p.columns(models.AccountFlagsDefault)
	cols = append(cols, "user_id")
	vals = append(vals, m.principal)

	defer m.accounts.invalidate()
	id, err := m.gw.Insert(ctx, rowstore.TableAccounts, cols, vals)
	if err != nil {
		return "", err
	}

	m.logger.Debug(ctx, "account inserted", "account_id", id)
	return id, nil
}

// UpdateAccount changes the given settings of an account. Nothing happens
// when there is nothing to change or the principal does not own id.
func (m *Manager) UpdateAccount(ctx context.Context, id string, s models.AccountSettings) error {
	p, err := accountSpec.prepare(s.Values(), false)
	if err != nil {
		return err
	}
	if p.empty() {
		return nil
	}
	if err := m.setPassword(&p, s.Password); err != nil {
		return err
	}

	row, err := m.accountRow(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	cols, vals := p.columns(row.flags())

	defer m.accounts.invalidate()
	_, err = m.gw.Update(ctx, rowstore.TableAccounts, rowstore.Filter{"id": id, "user_id": m.principal}, cols, vals)
	return err
}

// setPassword replaces the clear text password of a prepared row with its
// stored form.
func (m *Manager) setPassword(p *preparedRow, pw *string) error {
	enc, err := m.encryptPassword(pw)
	if err != nil || enc == nil {
		return err
	}
	for i, c := range p.cols {
		if c == models.FieldPassword {
			p.vals[i] = *enc
		}
	}
	return nil
}

// DeleteAccount removes the account together with all its addressbooks and
// their cached data, in one transaction.
func (m *Manager) DeleteAccount(ctx context.Context, id string) error {
	err := m.inTx(ctx, func(ctx context.Context) error {
		if _, err := m.accountRow(ctx, id); err != nil {
			return err
		}

		abooks, err := m.addressbookRowsForAccount(ctx, id, models.FilterAll)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(abooks))
		for _, a := range abooks {
			ids = append(ids, a.ID)
		}

		if err := m.DeleteAddressbooks(ctx, ids, DeleteOptions{SkipTransaction: true}); err != nil {
			return err
		}

		_, err = m.gw.Delete(ctx, rowstore.TableAccounts, rowstore.Filter{"id": id, "user_id": m.principal})
		return err
	})
	if err != nil {
		return err
	}

	m.logger.Info(ctx, "account deleted", "account_id", id)
	return nil
}
