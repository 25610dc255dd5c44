package carddav

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/emersion/go-webdav/carddav"
)

// Sync runs a sync-collection report against the addressbook at abookURL.
// An empty token requests the full collection. A token the server rejects
// is dropped and the exchange is repeated from scratch.
func (s *Service) Sync(ctx context.Context, conn *models.Connection, abookURL, syncToken string) (*models.SyncResult, error) {
	u, err := url.Parse(abookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid addressbook URL %q: %w", abookURL, err)
	}

	client, err := carddav.NewClient(s.httpClient(conn), abookURL)
	if err != nil {
		return nil, err
	}

	res, err := s.syncCollection(ctx, client, u.Path, syncToken)
	if err != nil && syncToken != "" {
		s.logger.Warn(ctx, "incremental sync failed, retrying from scratch", "url", abookURL, "error", err)
		res, err = s.syncCollection(ctx, client, u.Path, "")
	}
	if err != nil {
		return nil, fmt.Errorf("sync of %s failed: %w", abookURL, err)
	}
	return res, nil
}

func (s *Service) syncCollection(ctx context.Context, client *carddav.Client, path, token string) (*models.SyncResult, error) {
	resp, err := client.SyncCollection(ctx, path, &carddav.SyncQuery{
		DataRequest: carddav.AddressDataRequest{AllProp: true},
		SyncToken:   token,
	})
	if err != nil {
		return nil, err
	}

	res := &models.SyncResult{
		SyncToken: resp.SyncToken,
		Full:      token == "",
		Deleted:   resp.Deleted,
		Updated:   make([]models.SyncedCard, 0, len(resp.Updated)),
	}
	if len(resp.Updated) == 0 {
		return res, nil
	}

	cards, err := s.fetchCards(ctx, client, path, resp.Updated)
	if err != nil {
		return nil, err
	}
	for _, ao := range resp.Updated {
		got, ok := cards[ao.Path]
		if !ok {
			s.logger.Warn(ctx, "server did not return changed card", "href", ao.Path)
			continue
		}
		etag := got.ETag
		if etag == "" {
			etag = ao.ETag
		}
		res.Updated = append(res.Updated, models.SyncedCard{URI: ao.Path, ETag: etag, Card: got.Card})
	}
	return res, nil
}

// fetchCards downloads the vCards of the changed objects with an
// addressbook-multiget report, keyed by href.
func (s *Service) fetchCards(ctx context.Context, client *carddav.Client, path string, changed []carddav.AddressObject) (map[string]carddav.AddressObject, error) {
	hrefs := make([]string, len(changed))
	for i, ao := range changed {
		hrefs[i] = ao.Path
	}

	objs, err := client.MultiGetAddressBook(ctx, path, &carddav.AddressBookMultiGet{
		Paths:       hrefs,
		DataRequest: carddav.AddressDataRequest{AllProp: true},
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %d changed cards: %w", len(hrefs), err)
	}

	out := make(map[string]carddav.AddressObject, len(objs))
	for _, o := range objs {
		if o.Card != nil {
			out[o.Path] = o
		}
	}
	return out, nil
}
