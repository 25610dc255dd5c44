// Package refresher runs the scheduled maintenance pass over all users:
// accounts whose rediscovery interval elapsed are rediscovered, active
// addressbooks whose refresh interval elapsed are resynced.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
)

// Target is the per-user view of the manager used by a pass.
type Target interface {
	AccountIDs(ctx context.Context, presetsOnly bool) ([]string, error)
	Account(ctx context.Context, id string) (*models.Account, error)
	TemplateSettings(ctx context.Context, accountID string, defaults models.AddressbookSettings) (models.AddressbookSettings, error)
	DiscoverAddressbooks(ctx context.Context, accountID string, s models.AccountSettings, tmpl models.AddressbookSettings) (*manager.DiscoverResult, error)
	AddressbookIDs(ctx context.Context, filter models.Filter, presetsOnly bool) ([]string, error)
	Addressbook(ctx context.Context, id string) (*models.Addressbook, error)
	ResyncAddressbook(ctx context.Context, id string) (time.Duration, error)
}

// Factory returns the target for one user. It is called once per user and
// pass.
type Factory func(ctx context.Context, userID string) (Target, error)

// Defaults returns the template defaults for accounts of a preset; the
// empty name stands for manual accounts.
type Defaults func(presetName string) models.AddressbookSettings

type Stats struct {
	Users        int
	Rediscovered int
	Resynced     int
	Failed       int
}

type Refresher struct {
	gw       rowstore.Gateway
	factory  Factory
	defaults Defaults
	logger   logging.Logger
	now      func() time.Time
	onPass   func(Stats, error)
	extra    []string
}

func New(gw rowstore.Gateway, factory Factory, defaults Defaults, logger logging.Logger) *Refresher {
	if defaults == nil {
		defaults = func(string) models.AddressbookSettings { return models.AddressbookSettings{} }
	}
	return &Refresher{
		gw:       gw,
		factory:  factory,
		defaults: defaults,
		logger:   logging.ForModule(logger, "refresher"),
		now:      time.Now,
	}
}

// Include adds users that are visited on every pass even while they own no
// account, so preset accounts get created for them.
func (r *Refresher) Include(users ...string) {
	for _, u := range users {
		if u != "" {
			r.extra = append(r.extra, u)
		}
	}
}

// Users returns the ids of all users owning at least one account, plus
// the included ones.
func (r *Refresher) Users(ctx context.Context) ([]string, error) {
	var rows []struct {
		UserID string `db:"user_id"`
	}
	if err := r.gw.Select(ctx, &rows, rowstore.TableAccounts, nil, "user_id"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	users := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			users = append(users, row.UserID)
		}
	}
	for _, u := range r.extra {
		if !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}

// RunOnce performs one pass. Failures of single accounts or addressbooks
// are logged and counted; only failing to list the users aborts the pass.
func (r *Refresher) RunOnce(ctx context.Context) (Stats, error) {
	var st Stats
	users, err := r.Users(ctx)
	if err != nil {
		return st, err
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Users++

		t, err := r.factory(ctx, u)
		if err != nil {
			r.logger.Error(ctx, "preparing user failed", "user_id", u, "error", err)
			st.Failed++
			continue
		}
		r.rediscover(ctx, u, t, &st)
		r.resync(ctx, u, t, &st)
	}

	r.logger.Info(ctx, "refresh pass finished",
		"users", st.Users, "rediscovered", st.Rediscovered, "resynced", st.Resynced, "failed", st.Failed)
	return st, nil
}

func (r *Refresher) rediscover(ctx context.Context, user string, t Target, st *Stats) {
	ids, err := t.AccountIDs(ctx, false)
	if err != nil {
		r.logger.Error(ctx, "listing accounts failed", "user_id", user, "error", err)
		st.Failed++
		return
	}

	now := r.now().Unix()
	for _, id := range ids {
		acc, err := t.Account(ctx, id)
		if err != nil {
			r.logger.Error(ctx, "loading account failed", "user_id", user, "account_id", id, "error", err)
			st.Failed++
			continue
		}
		if !rediscoveryDue(acc, now) {
			continue
		}

		tmpl, err := t.TemplateSettings(ctx, id, r.defaults(acc.PresetName))
		if err == nil {
			_, err = t.DiscoverAddressbooks(ctx, id, models.AccountSettings{}, tmpl)
		}
		if err != nil {
			r.logger.Warn(ctx, "rediscovery failed", "user_id", user, "account_id", id, "error", err)
			st.Failed++
			continue
		}
		st.Rediscovered++
	}
}

func (r *Refresher) resync(ctx context.Context, user string, t Target, st *Stats) {
	ids, err := t.AddressbookIDs(ctx, models.FilterActive, false)
	if err != nil {
		r.logger.Error(ctx, "listing addressbooks failed", "user_id", user, "error", err)
		st.Failed++
		return
	}

	now := r.now().Unix()
	for _, id := range ids {
		ab, err := t.Addressbook(ctx, id)
		if err != nil {
			r.logger.Error(ctx, "loading addressbook failed", "user_id", user, "abook_id", id, "error", err)
			st.Failed++
			continue
		}
		if !resyncDue(ab, now) {
			continue
		}

		d, err := t.ResyncAddressbook(ctx, id)
		if err != nil {
			r.logger.Warn(ctx, "resync failed", "user_id", user, "abook_id", id, "error", err)
			st.Failed++
			continue
		}
		r.logger.Debug(ctx, "addressbook resynced", "user_id", user, "abook_id", id, "duration", d)
		st.Resynced++
	}
}

func rediscoveryDue(acc *models.Account, now int64) bool {
	return acc.DiscoveryURL != "" && acc.LastDiscovered+acc.RediscoverTime <= now
}

func resyncDue(ab *models.Addressbook, now int64) bool {
	return ab.LastUpdated+ab.RefreshTime <= now
}

// OnPass registers fn to be called by Run after every pass.
func (r *Refresher) OnPass(fn func(Stats, error)) {
	r.onPass = fn
}

// Run performs a pass immediately and then every interval until ctx is
// done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := r.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error(ctx, "refresh pass failed", "error", err)
		}
		if r.onPass != nil && ctx.Err() == nil {
			r.onPass(st, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
