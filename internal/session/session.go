// Package session provides the principal-bound secrets used when building a
// connection: the login name and password of the current user, and an OAuth
// access token if the user logged in through OAuth.
package session

// Session is the read side used by the credential resolver.
type Session interface {
	UserID() string
	LoginName() string
	LoginPassword() string
	OAuthToken() (string, bool)
}

// Secrets is the in-memory Session implementation.
type Secrets struct {
	User     string
	Login    string
	Password string
	Token    string
}

func (s *Secrets) UserID() string        { return s.User }
func (s *Secrets) LoginName() string     { return s.Login }
func (s *Secrets) LoginPassword() string { return s.Password }

func (s *Secrets) OAuthToken() (string, bool) {
	return s.Token, s.Token != ""
}
