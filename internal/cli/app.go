package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/presets"
	"github.com/dmitrijs2005/carddavsync/internal/session"
)

// Manager is the part of the addressbook manager the commands use.
type Manager interface {
	Principal() string
	AccountIDs(ctx context.Context, presetsOnly bool) ([]string, error)
	Account(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, s models.AccountSettings) error
	DeleteAccount(ctx context.Context, id string) error
	AddressbookIDs(ctx context.Context, filter models.Filter, presetsOnly bool) ([]string, error)
	Addressbook(ctx context.Context, id string) (*models.Addressbook, error)
	UpdateAddressbook(ctx context.Context, id string, s models.AddressbookSettings) error
	DeleteAddressbooks(ctx context.Context, ids []string, opts manager.DeleteOptions) error
	ClearCache(ctx context.Context, id string) error
	DiscoverAddressbooks(ctx context.Context, accountID string, s models.AccountSettings, tmpl models.AddressbookSettings) (*manager.DiscoverResult, error)
	ResyncAddressbook(ctx context.Context, id string) (time.Duration, error)
	SaveTemplate(ctx context.Context, accountID string, s, fixed models.AddressbookSettings) (string, error)
	TemplateSettings(ctx context.Context, accountID string, defaults models.AddressbookSettings) (models.AddressbookSettings, error)
}

// SecretStore persists session secrets between runs.
type SecretStore interface {
	Save(s *session.Secrets) error
	Clear(userID string) error
}

type App struct {
	mgr    Manager
	policy *presets.Policy
	store  SecretStore
	sess   *session.Secrets
	reader *bufio.Reader
	out    io.Writer
}

// NewApp returns the command line for the principal of mgr. sess is the
// live session the connection resolver reads; login and logout update it in
// place. store may be nil, which disables login and logout.
func NewApp(mgr Manager, policy *presets.Policy, store SecretStore, sess *session.Secrets, in io.Reader, out io.Writer) *App {
	if policy == nil {
		policy = &presets.Policy{}
	}
	if sess == nil {
		sess = &session.Secrets{User: mgr.Principal()}
	}
	return &App{
		mgr:    mgr,
		policy: policy,
		store:  store,
		sess:   sess,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) getStatus() string {
	s := a.mgr.Principal()
	if a.sess.Login != "" {
		s += " as " + a.sess.Login
	}
	return fmt.Sprintf("(%s)", s)
}

// Exec runs a single command given as its words.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q, type 'help' for commands", common.ErrorValidation, args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("%w: usage: %s %s", common.ErrorValidation, cmd.name, cmd.usage)
	}
	return cmd.run(a, ctx, args[1:])
}

// Root starts the interactive REPL and blocks until the user leaves it or
// input ends.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to carddavctl (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// presetOf returns the preset an account was created from, if it still
// exists.
func (a *App) presetOf(acc *models.Account) (presets.Preset, bool) {
	if acc.PresetName == "" {
		return presets.Preset{}, false
	}
	pr, err := a.policy.Get(acc.PresetName)
	return pr, err == nil
}
