package carddav

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/naming"
	"github.com/emersion/go-webdav/carddav"
)

// endpoint turns a discovery URL into an absolute URL. A bare host name is
// resolved through DNS SRV records and the well-known URI, falling back to
// https on the host itself.
func (s *Service) endpoint(ctx context.Context, raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		host := strings.TrimSuffix(raw, "/")
		found, err := carddav.DiscoverContextURL(ctx, host)
		if err != nil {
			s.logger.Debug(ctx, "context URL discovery failed", "host", host, "error", err)
			found = "https://" + host + "/"
		}
		raw = found
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid discovery URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid discovery URL %q: unsupported scheme", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// DiscoverAddressbooks lists the addressbooks reachable from the discovery
// URL of conn. The principal's addressbook home is looked up first; when
// the server does not support that, the discovery URL itself is searched.
func (s *Service) DiscoverAddressbooks(ctx context.Context, conn *models.Connection) ([]models.ServerAddressbook, error) {
	base, err := s.endpoint(ctx, conn.DiscoveryURL)
	if err != nil {
		return nil, err
	}

	client, err := carddav.NewClient(s.httpClient(conn), base.String())
	if err != nil {
		return nil, err
	}

	home, err := s.homeSet(ctx, client)
	if err != nil {
		s.logger.Debug(ctx, "addressbook home lookup failed, searching discovery URL", "url", base.String(), "error", err)
		home = base.Path
	}

	books, err := client.FindAddressBooks(ctx, home)
	if err != nil {
		return nil, fmt.Errorf("listing addressbooks at %s: %w", home, err)
	}

	out := make([]models.ServerAddressbook, 0, len(books))
	for _, b := range books {
		ref, err := url.Parse(b.Path)
		if err != nil {
			return nil, fmt.Errorf("server returned invalid addressbook path %q: %w", b.Path, err)
		}
		out = append(out, models.ServerAddressbook{
			URI:         base.ResolveReference(ref).String(),
			DisplayName: b.Name,
			Description: b.Description,
			BaseName:    naming.BaseName(b.Path),
		})
	}

	s.logger.Debug(ctx, "addressbooks discovered", "url", base.String(), "count", len(out))
	return out, nil
}

func (s *Service) homeSet(ctx context.Context, client *carddav.Client) (string, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", err
	}
	return client.FindAddressBookHomeSet(ctx, principal)
}
