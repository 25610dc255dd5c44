package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
)

func (a *App) listAccounts(ctx context.Context, _ []string) error {
	ids, err := a.mgr.AccountIDs(ctx, false)
	if err != nil {
		return err
	}

	shown := 0
	for _, id := range ids {
		acc, err := a.mgr.Account(ctx, id)
		if err != nil {
			return err
		}
		if pr, ok := a.presetOf(acc); ok && pr.Hide {
			continue
		}

		preset := ""
		if acc.PresetName != "" {
			preset = " [preset " + acc.PresetName + "]"
		}
		a.printf("%s  %s  %s  last discovered %s%s\n",
			acc.ID, acc.AccountName, acc.DiscoveryURL, formatUnix(acc.LastDiscovered), preset)
		shown++
	}
	if shown == 0 {
		a.printf("no accounts\n")
	}
	return nil
}

// addAccount creates an account from key=value arguments, prompting for
// the attributes that are missing.
func (a *App) addAccount(ctx context.Context, args []string) error {
	s, err := ParseAccountSettings(args)
	if err != nil {
		return err
	}

	if s.AccountName == nil {
		v, err := GetSimpleText(a.reader, "Account name", a.out)
		if err != nil {
			return err
		}
		s.AccountName = &v
	}
	if s.DiscoveryURL == nil {
		v, err := GetSimpleText(a.reader, "Discovery URL (host name or URL)", a.out)
		if err != nil {
			return err
		}
		s.DiscoveryURL = &v
	}
	if s.Username == nil {
		v, err := GetTextDefault(a.reader, "Username", "%u", a.out)
		if err != nil {
			return err
		}
		s.Username = &v
	}
	if s.Password == nil {
		pw, err := GetPassword("Password (%p for the login password, %b for the OAuth token)", a.out)
		if err != nil {
			return err
		}
		v := string(pw)
		common.WipeByteArray(pw)
		s.Password = &v
	}

	res, err := a.mgr.DiscoverAddressbooks(ctx, "", s, a.policy.TemplateDefaults(""))
	if err != nil {
		return err
	}
	a.printf("account %s created with %d addressbooks\n", res.AccountID, len(res.Added))
	return nil
}

func (a *App) rediscover(ctx context.Context, args []string) error {
	acc, err := a.mgr.Account(ctx, args[0])
	if err != nil {
		return err
	}
	tmpl, err := a.mgr.TemplateSettings(ctx, acc.ID, a.policy.TemplateDefaults(acc.PresetName))
	if err != nil {
		return err
	}

	res, err := a.mgr.DiscoverAddressbooks(ctx, acc.ID, models.AccountSettings{}, tmpl)
	if err != nil {
		return err
	}
	a.printf("%s: %d new, %d removed addressbooks\n", acc.AccountName, len(res.Added), len(res.Removed))
	return nil
}

func (a *App) setAccount(ctx context.Context, args []string) error {
	acc, err := a.mgr.Account(ctx, args[0])
	if err != nil {
		return err
	}
	s, err := ParseAccountSettings(args[1:])
	if err != nil {
		return err
	}
	if pr, ok := a.presetOf(acc); ok {
		if err := pr.CheckAccountUpdate(s); err != nil {
			return err
		}
	}
	return a.mgr.UpdateAccount(ctx, acc.ID, s)
}

func (a *App) deleteAccount(ctx context.Context, args []string) error {
	acc, err := a.mgr.Account(ctx, args[0])
	if err != nil {
		return err
	}
	if acc.PresetName != "" {
		return fmt.Errorf("%w: account %s is managed by preset %q", common.ErrorValidation, acc.ID, acc.PresetName)
	}
	if err := a.mgr.DeleteAccount(ctx, acc.ID); err != nil {
		return err
	}
	a.printf("account %s deleted\n", acc.ID)
	return nil
}

func formatUnix(sec int64) string {
	if sec <= 0 {
		return "never"
	}
	return time.Unix(sec, 0).Format(time.DateTime)
}
