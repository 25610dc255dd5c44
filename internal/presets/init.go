package presets

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/models"
)

// AccountManager is the part of the manager used to keep preset accounts in
// line with the policy.
type AccountManager interface {
	Principal() string
	AccountIDs(ctx context.Context, presetsOnly bool) ([]string, error)
	Account(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, s models.AccountSettings) error
	DeleteAccount(ctx context.Context, id string) error
	AddressbooksForAccount(ctx context.Context, accountID string, filter models.Filter) (map[string]*models.Addressbook, error)
	UpdateAddressbook(ctx context.Context, id string, s models.AddressbookSettings) error
	DiscoverAddressbooks(ctx context.Context, accountID string, s models.AccountSettings, tmpl models.AddressbookSettings) (*manager.DiscoverResult, error)
}

// Init brings the preset accounts of the manager's principal in line with
// the policy: missing preset accounts are created through discovery,
// accounts of removed presets are deleted, and fixed attributes are written
// over existing ones. A failing preset is logged and does not stop the
// others; all failures are returned joined.
func (p *Policy) Init(ctx context.Context, mgr AccountManager, logger logging.Logger) error {
	logger = logging.ForModule(logger, "presets", "user_id", mgr.Principal())

	ids, err := mgr.AccountIDs(ctx, true)
	if err != nil {
		return err
	}

	existing := make(map[string]string, len(ids))
	var errs []error
	for _, id := range ids {
		acc, err := mgr.Account(ctx, id)
		if err != nil {
			return err
		}
		if _, ok := p.presets[acc.PresetName]; !ok {
			logger.Info(ctx, "removing account of deleted preset", "account_id", id, "preset", acc.PresetName)
			if err := mgr.DeleteAccount(ctx, id); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		existing[acc.PresetName] = id
	}

	for _, name := range p.Names() {
		pr := p.presets[name]
		id, ok := existing[name]

		if !ok {
			res, err := mgr.DiscoverAddressbooks(ctx, "", pr.AccountSettings(), pr.AddressbookTemplate())
			if err != nil {
				logger.Error(ctx, "creating preset account failed", "preset", name, "error", err)
				errs = append(errs, err)
				continue
			}
			logger.Info(ctx, "preset account created", "preset", name, "account_id", res.AccountID, "addressbooks", len(res.Added))
			continue
		}

		if err := p.refreshFixed(ctx, mgr, pr, id); err != nil {
			logger.Error(ctx, "refreshing preset account failed", "preset", name, "account_id", id, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (p *Policy) refreshFixed(ctx context.Context, mgr AccountManager, pr Preset, accountID string) error {
	if err := mgr.UpdateAccount(ctx, accountID, pr.FixedAccountSettings()); err != nil {
		return err
	}

	fixed := pr.FixedAddressbookSettings()
	if len(fixed.Values()) == 0 {
		return nil
	}
	abooks, err := mgr.AddressbooksForAccount(ctx, accountID, models.FilterAll)
	if err != nil {
		return err
	}
	var errs []error
	for id := range abooks {
		errs = append(errs, mgr.UpdateAddressbook(ctx, id, fixed))
	}
	return errors.Join(errs...)
}
