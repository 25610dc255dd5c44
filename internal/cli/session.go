package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/session"
)

var errNoKeyring = errors.New("no keyring configured")

// login stores the secrets placeholders resolve to. They apply to the
// running session at once and to later runs through the keyring.
func (a *App) login(ctx context.Context, _ []string) error {
	if a.store == nil {
		return errNoKeyring
	}

	login, err := GetTextDefault(a.reader, "Login name", a.sess.Login, a.out)
	if err != nil {
		return err
	}
	pw, err := GetPassword("Login password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	token, err := GetPassword("OAuth access token (empty for none)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(token)

	s := &session.Secrets{
		User:     a.mgr.Principal(),
		Login:    login,
		Password: string(pw),
		Token:    string(token),
	}
	if err := a.store.Save(s); err != nil {
		return err
	}
	*a.sess = *s
	a.printf("session of %s saved\n", s.User)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if a.store == nil {
		return errNoKeyring
	}
	if err := a.store.Clear(a.mgr.Principal()); err != nil {
		return err
	}
	*a.sess = session.Secrets{User: a.mgr.Principal()}
	a.printf("session of %s cleared\n", a.mgr.Principal())
	return nil
}
