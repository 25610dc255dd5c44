package manager

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/models"
)

// resyncGrace is how far the next due time is pushed out while a resync is
// running, so a concurrent refresh pass skips the addressbook.
const resyncGrace = 300

// ResyncAddressbook runs a sync-collection exchange for the addressbook and
// stores the received cards. It returns the wall-clock duration of the run.
//
// Before contacting the server, last_updated is set such that the
// addressbook becomes due again in five minutes. That write stays in place
// when the sync fails.
func (m *Manager) ResyncAddressbook(ctx context.Context, id string) (time.Duration, error) {
	if m.conns == nil || m.syncer == nil {
		return 0, errors.New("manager has no sync service configured")
	}

	abook, err := m.Addressbook(ctx, id)
	if err != nil {
		return 0, err
	}

	start := m.now()
	delayed := start.Unix() + resyncGrace - abook.RefreshTime
	if err := m.UpdateAddressbook(ctx, id, models.AddressbookSettings{LastUpdated: &delayed}); err != nil {
		return 0, err
	}

	acc, err := m.Account(ctx, abook.AccountID)
	if err != nil {
		return 0, err
	}
	conn, err := m.conns.Connection(*acc)
	if err != nil {
		return 0, err
	}

	res, err := m.syncer.Sync(ctx, conn, abook.URL, abook.SyncToken)
	if err != nil {
		m.logger.Warn(ctx, "addressbook sync failed", "abook_id", id, "error", err)
		return 0, err
	}

	err = m.inTx(ctx, func(ctx context.Context) error {
		if m.contacts != nil {
			if err := m.contacts.Apply(ctx, abook, res); err != nil {
				return err
			}
		}
		return m.UpdateAddressbook(ctx, id, models.AddressbookSettings{
			SyncToken:   &res.SyncToken,
			LastUpdated: models.Ptr(m.now().Unix()),
		})
	})
	if err != nil {
		return 0, err
	}

	elapsed := m.now().Sub(start).Truncate(time.Second)
	m.logger.Info(ctx, "addressbook synced",
		"abook_id", id, "updated", len(res.Updated), "deleted", len(res.Deleted), "duration", elapsed)
	return elapsed, nil
}
