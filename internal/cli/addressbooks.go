package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/presets"
)

func (a *App) listAddressbooks(ctx context.Context, args []string) error {
	filter := models.FilterRegular
	if len(args) > 0 {
		if f, ok := models.Filters[args[0]]; ok {
			filter = f
			args = args[1:]
		}
	}
	var accountID string
	if len(args) > 0 {
		accountID = args[0]
		if _, err := a.mgr.Account(ctx, accountID); err != nil {
			return err
		}
	}

	ids, err := a.mgr.AddressbookIDs(ctx, filter, false)
	if err != nil {
		return err
	}

	shown := 0
	for _, id := range ids {
		ab, err := a.mgr.Addressbook(ctx, id)
		if err != nil {
			return err
		}
		if accountID != "" && ab.AccountID != accountID {
			continue
		}
		a.printf("%s  %s  %q  %s  %s  synced %s\n",
			ab.ID, ab.AccountID, ab.Name, ab.URL, stateOf(ab), formatUnix(ab.LastUpdated))
		shown++
	}
	if shown == 0 {
		a.printf("no addressbooks\n")
	}
	return nil
}

func stateOf(ab *models.Addressbook) string {
	var s []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{ab.Active, "active"},
		{ab.Readonly, "ro"},
		{ab.UseCategories, "categories"},
		{ab.RequireAlwaysEmail, "email-only"},
		{ab.Discovered, "discovered"},
		{ab.Template, "template"},
	} {
		if f.on {
			s = append(s, f.name)
		}
	}
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}

// owner returns the account of an addressbook and its preset, if any.
func (a *App) owner(ctx context.Context, abookID string) (*models.Addressbook, presets.Preset, bool, error) {
	ab, err := a.mgr.Addressbook(ctx, abookID)
	if err != nil {
		return nil, presets.Preset{}, false, err
	}
	acc, err := a.mgr.Account(ctx, ab.AccountID)
	if err != nil {
		return nil, presets.Preset{}, false, err
	}
	pr, ok := a.presetOf(acc)
	return ab, pr, ok, nil
}

func (a *App) setAddressbook(ctx context.Context, args []string) error {
	ab, pr, isPreset, err := a.owner(ctx, args[0])
	if err != nil {
		return err
	}
	s, err := ParseAddressbookSettings(args[1:])
	if err != nil {
		return err
	}
	if isPreset {
		if err := pr.CheckAddressbookUpdate(s); err != nil {
			return err
		}
	}
	return a.mgr.UpdateAddressbook(ctx, ab.ID, s)
}

func (a *App) deleteAddressbooks(ctx context.Context, args []string) error {
	for _, id := range args {
		_, pr, isPreset, err := a.owner(ctx, id)
		if err != nil {
			return err
		}
		if isPreset {
			return fmt.Errorf("%w: addressbook %s belongs to preset %q", common.ErrorValidation, id, pr.Name)
		}
	}
	if err := a.mgr.DeleteAddressbooks(ctx, args, manager.DeleteOptions{}); err != nil {
		return err
	}
	a.printf("%d addressbooks deleted\n", len(args))
	return nil
}

func (a *App) sync(ctx context.Context, args []string) error {
	for _, id := range args {
		ab, err := a.mgr.Addressbook(ctx, id)
		if err != nil {
			return err
		}
		took, err := a.mgr.ResyncAddressbook(ctx, id)
		if err != nil {
			return fmt.Errorf("addressbook %q: %w", ab.Name, err)
		}
		a.printf("%q synced in %s\n", ab.Name, took)
	}
	return nil
}

func (a *App) clearCache(ctx context.Context, args []string) error {
	if err := a.mgr.ClearCache(ctx, args[0]); err != nil {
		return err
	}
	a.printf("cache of %s cleared\n", args[0])
	return nil
}

// template shows the settings of the account's template addressbook, or
// changes them when key=value arguments are given.
func (a *App) template(ctx context.Context, args []string) error {
	acc, err := a.mgr.Account(ctx, args[0])
	if err != nil {
		return err
	}
	pr, isPreset := a.presetOf(acc)

	if len(args) == 1 {
		s, err := a.mgr.TemplateSettings(ctx, acc.ID, a.policy.TemplateDefaults(acc.PresetName))
		if err != nil {
			return err
		}
		values := s.Values()
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			a.printf("%s=%v\n", k, values[k])
		}
		return nil
	}

	s, err := ParseAddressbookSettings(args[1:])
	if err != nil {
		return err
	}
	var fixed models.AddressbookSettings
	if isPreset {
		if err := pr.CheckAddressbookUpdate(s); err != nil {
			return err
		}
		fixed = pr.FixedAddressbookSettings()
	}
	id, err := a.mgr.SaveTemplate(ctx, acc.ID, s, fixed)
	if err != nil {
		return err
	}
	a.printf("template %s saved\n", id)
	return nil
}
