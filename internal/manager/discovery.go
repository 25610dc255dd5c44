package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/naming"
)

// DiscoverResult reports the outcome of a discovery run.
type DiscoverResult struct {
	AccountID string
	Added     []string
	Removed   []string
}

// DiscoverAddressbooks discovers the addressbooks of an account and brings
// the local state in line with the server.
//
// With an empty accountID the account described by settings is created;
// otherwise settings are applied on top of the stored account for building
// the connection only. New addressbooks are created from tmpl, addressbooks
// that are no longer reported are deleted. The remote call happens before
// any write; all writes of one run share a single transaction.
func (m *Manager) DiscoverAddressbooks(ctx context.Context, accountID string, settings models.AccountSettings, tmpl models.AddressbookSettings) (*DiscoverResult, error) {
	if m.conns == nil || m.discover == nil {
		return nil, errors.New("manager has no discovery service configured")
	}

	acc := models.Account{}
	if accountID != "" {
		stored, err := m.Account(ctx, accountID)
		if err != nil {
			return nil, err
		}
		acc = *stored
	} else if _, err := accountSpec.prepare(settings.Values(), true); err != nil {
		return nil, err
	}
	acc = settings.Merge(acc)

	if acc.DiscoveryURL == "" {
		return nil, fmt.Errorf("%w: account %q has no discovery URL", common.ErrorValidation, acc.AccountName)
	}

	conn, err := m.conns.Connection(acc)
	if err != nil {
		return nil, err
	}

	found, err := m.discover.DiscoverAddressbooks(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("discovery for account %q failed: %w", acc.AccountName, err)
	}

	res := &DiscoverResult{AccountID: accountID}
	now := m.now().Unix()

	err = m.inTx(ctx, func(ctx context.Context) error {
		var newbooks []models.ServerAddressbook

		if res.AccountID != "" {
			if err := m.UpdateAccount(ctx, res.AccountID, models.AccountSettings{LastDiscovered: &now}); err != nil {
				return err
			}

			local, err := m.AddressbooksForAccount(ctx, res.AccountID, models.FilterDiscovered)
			if err != nil {
				return err
			}
			byURL := make(map[string]string, len(local))
			for id, ab := range local {
				byURL[ab.URL] = id
			}

			for _, ab := range found {
				if _, ok := byURL[ab.URI]; ok {
					delete(byURL, ab.URI)
				} else {
					newbooks = append(newbooks, ab)
				}
			}

			for _, id := range byURL {
				res.Removed = append(res.Removed, id)
			}
			sort.Strings(res.Removed)
			if err := m.DeleteAddressbooks(ctx, res.Removed, DeleteOptions{SkipTransaction: true}); err != nil {
				return err
			}
		} else {
			settings.LastDiscovered = &now
			id, err := m.InsertAccount(ctx, settings)
			if err != nil {
				return err
			}
			res.AccountID = id
			newbooks = found
		}

		stored, err := m.Account(ctx, res.AccountID)
		if err != nil {
			return err
		}

		nameTmpl := naming.DefaultTemplate
		if tmpl.Name != nil {
			nameTmpl = *tmpl.Name
		}

		for _, ab := range newbooks {
			s := tmpl.With(models.AddressbookSettings{
				AccountID:  &res.AccountID,
				Name:       models.Ptr(naming.Resolve(nameTmpl, *stored, ab)),
				URL:        models.Ptr(ab.URI),
				Discovered: models.Ptr(true),
				Template:   models.Ptr(false),
				SyncToken:  models.Ptr(""),
			})
			id, err := m.InsertAddressbook(ctx, s)
			if err != nil {
				return err
			}
			res.Added = append(res.Added, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "addressbooks discovered",
		"account_id", res.AccountID, "found", len(found), "added", len(res.Added), "removed", len(res.Removed))
	return res, nil
}
