// Package credentials resolves the stored account credentials into a
// connection for the CardDAV client. Usernames, passwords and URLs may carry
// placeholders bound to the logged-in user:
//
//	%u  login name
//	%l  local part of the login name
//	%d  domain part of the login name
//	%V  login name with '@' and '.' replaced by '_'
//	%p  login password (password field only)
//	%b  use the OAuth access token of the session (password field only)
package credentials

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

const (
	PasswordLogin  = "%p"
	PasswordBearer = "%b"
)

type Resolver struct {
	sess session.Session
	now  func() time.Time
}

func NewResolver(sess session.Session) *Resolver {
	return &Resolver{sess: sess, now: time.Now}
}

func (r *Resolver) loginReplacer() *strings.Replacer {
	login := r.sess.LoginName()
	local, domain := login, ""
	if i := strings.LastIndex(login, "@"); i >= 0 {
		local, domain = login[:i], login[i+1:]
	}
	flat := strings.NewReplacer("@", "_", ".", "_").Replace(login)

	return strings.NewReplacer("%u", login, "%l", local, "%d", domain, "%V", flat)
}

// Username substitutes the login placeholders of a username template.
func (r *Resolver) Username(tmpl string) string {
	return r.loginReplacer().Replace(tmpl)
}

// URL substitutes the login placeholders of a discovery URL template.
func (r *Resolver) URL(tmpl string) string {
	return r.loginReplacer().Replace(tmpl)
}

// Password substitutes %p with the login password.
func (r *Resolver) Password(tmpl string) string {
	return strings.ReplaceAll(tmpl, PasswordLogin, r.sess.LoginPassword())
}

// Connection builds the connection for acc. A password of %b selects bearer
// authentication with the session's OAuth token; a missing or expired token
// is reported as common.ErrorUnauthorized.
func (r *Resolver) Connection(acc models.Account) (*models.Connection, error) {
	conn := &models.Connection{
		DiscoveryURL:        r.URL(acc.DiscoveryURL),
		PreemptiveBasicAuth: acc.PreemptiveBasicAuth,
		TLSVerify:           !acc.SSLNoVerify,
	}

	if acc.Password != PasswordBearer {
		conn.Username = r.Username(acc.Username)
		conn.Password = r.Password(acc.Password)
		return conn, nil
	}

	token, ok := r.sess.OAuthToken()
	if !ok {
		return nil, fmt.Errorf("%w: account %q requires an OAuth access token but the session has none",
			common.ErrorUnauthorized, acc.AccountName)
	}
	if err := checkExpiry(token, r.now()); err != nil {
		return nil, fmt.Errorf("%w: account %q: %w", common.ErrorUnauthorized, acc.AccountName, err)
	}
	conn.BearerToken = token
	return conn, nil
}

// checkExpiry rejects JWT access tokens whose exp claim has passed. Opaque
// tokens cannot be inspected and are passed through.
func checkExpiry(token string, now time.Time) error {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return common.ErrTokenExpired
	}
	return nil
}
