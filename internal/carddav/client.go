// Package carddav talks to CardDAV servers on behalf of an account: it
// discovers the addressbooks of a principal and runs sync-collection
// exchanges against a single addressbook.
package carddav

import (
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/emersion/go-webdav"
)

const DefaultTimeout = 30 * time.Second

// Service builds per-connection clients. It implements both the discoverer
// and the syncer used by the manager.
type Service struct {
	timeout time.Duration
	logger  logging.Logger
	base    http.RoundTripper
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTransport replaces the transport requests are sent with. TLS
// settings of the connection are not applied to a custom transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Service) { s.base = rt }
}

func NewService(opts ...Option) *Service {
	s := &Service{timeout: DefaultTimeout}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.ForModule(s.logger, "carddav")
	return s
}

func (s *Service) transport(conn *models.Connection) http.RoundTripper {
	if s.base != nil {
		return s.base
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	if !conn.TLSVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return t
}

// httpClient returns a webdav.HTTPClient that authenticates as conn.
func (s *Service) httpClient(conn *models.Connection) webdav.HTTPClient {
	return &authClient{
		c:    &http.Client{Timeout: s.timeout, Transport: s.transport(conn)},
		conn: conn,
	}
}

// authClient adds the credentials of a connection to every request. Basic
// credentials are sent up front only when the account asks for it;
// otherwise they are sent after the server answers 401.
type authClient struct {
	c    *http.Client
	conn *models.Connection
}

func (a *authClient) Do(req *http.Request) (*http.Response, error) {
	switch {
	case a.conn.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+a.conn.BearerToken)
		return a.c.Do(req)
	case a.conn.Username == "" && a.conn.Password == "":
		return a.c.Do(req)
	case a.conn.PreemptiveBasicAuth:
		req.SetBasicAuth(a.conn.Username, a.conn.Password)
		return a.c.Do(req)
	}

	resp, err := a.c.Do(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	retry := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return resp, nil
		}
		if retry.Body, err = req.GetBody(); err != nil {
			return resp, nil
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry.SetBasicAuth(a.conn.Username, a.conn.Password)
	return a.c.Do(retry)
}
