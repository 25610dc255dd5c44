// Package contacts stores the cards received by a resync in the local
// contact cache of an addressbook.
package contacts

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
	"github.com/emersion/go-vcard"
)

type Store struct {
	gw     rowstore.Gateway
	logger logging.Logger
}

func NewStore(gw rowstore.Gateway, logger logging.Logger) *Store {
	return &Store{gw: gw, logger: logging.ForModule(logger, "contacts")}
}

type contactRef struct {
	ID  string `db:"id"`
	URI string `db:"uri"`
}

type groupRef struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// Apply writes res into the cache of abook. It does not open a transaction;
// the caller is expected to run it inside one.
func (s *Store) Apply(ctx context.Context, abook *models.Addressbook, res *models.SyncResult) error {
	var existing []contactRef
	if err := s.gw.Select(ctx, &existing, rowstore.TableContacts, rowstore.Filter{"abook_id": abook.ID}, "id", "uri"); err != nil {
		return err
	}
	byURI := make(map[string]string, len(existing))
	for _, c := range existing {
		byURI[c.URI] = c.ID
	}

	gone := slices.Clone(res.Deleted)
	if res.Full {
		received := make(map[string]bool, len(res.Updated))
		for _, c := range res.Updated {
			received[c.URI] = true
		}
		for uri := range byURI {
			if !received[uri] {
				gone = append(gone, uri)
			}
		}
	}

	rows := make([]contactRow, len(res.Updated))
	var skipped int
	for i, c := range res.Updated {
		if c.Card == nil {
			skipped++
			continue
		}
		rows[i] = extract(c.Card)
		if abook.RequireAlwaysEmail && rows[i].email == "" {
			gone = append(gone, c.URI)
			skipped++
		}
	}
	if err := s.remove(ctx, abook.ID, byURI, gone); err != nil {
		return err
	}

	groups, err := s.groups(ctx, abook)
	if err != nil {
		return err
	}

	var stored int
	for i, c := range res.Updated {
		if c.Card == nil || (abook.RequireAlwaysEmail && rows[i].email == "") {
			continue
		}
		id, err := s.upsert(ctx, abook.ID, byURI[c.URI], c, rows[i])
		if err != nil {
			return fmt.Errorf("storing card %s: %w", c.URI, err)
		}
		if groups != nil {
			if err := s.setMemberships(ctx, abook.ID, id, rows[i].categories, groups); err != nil {
				return err
			}
		}
		stored++
	}

	s.logger.Debug(ctx, "sync result applied",
		"abook_id", abook.ID, "stored", stored, "removed", len(gone), "skipped", skipped, "full", res.Full)
	return nil
}

// remove deletes the contacts at the given hrefs together with their group
// memberships. Unknown hrefs are ignored.
func (s *Store) remove(ctx context.Context, abookID string, byURI map[string]string, uris []string) error {
	var ids []string
	for _, uri := range uris {
		if id, ok := byURI[uri]; ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.gw.Delete(ctx, rowstore.TableGroupUser, rowstore.Filter{"contact_id": ids}); err != nil {
		return err
	}
	if _, err := s.gw.Delete(ctx, rowstore.TableContacts, rowstore.Filter{"abook_id": abookID, "id": ids}); err != nil {
		return err
	}
	for uri, id := range byURI {
		if slices.Contains(ids, id) {
			delete(byURI, uri)
		}
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, abookID, id string, c models.SyncedCard, row contactRow) (string, error) {
	text, err := encode(c.Card)
	if err != nil {
		return "", err
	}

	cols := []string{"name", "email", "firstname", "surname", "organization", "vcard", "etag", "cuid"}
	vals := []any{row.name, row.email, row.firstname, row.surname, row.organization, text, c.ETag, row.uid}

	if id != "" {
		_, err := s.gw.Update(ctx, rowstore.TableContacts, rowstore.Filter{"id": id}, cols, vals)
		return id, err
	}

	cols = append(cols, "abook_id", "uri")
	vals = append(vals, abookID, c.URI)
	return s.gw.Insert(ctx, rowstore.TableContacts, cols, vals)
}

// groups returns the category groups of abook keyed by name, or nil when
// the addressbook does not map categories to groups.
func (s *Store) groups(ctx context.Context, abook *models.Addressbook) (map[string]string, error) {
	if !abook.UseCategories {
		return nil, nil
	}
	var rows []groupRef
	if err := s.gw.Select(ctx, &rows, rowstore.TableGroups, rowstore.Filter{"abook_id": abook.ID}, "id", "name"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, g := range rows {
		out[g.Name] = g.ID
	}
	return out, nil
}

func (s *Store) setMemberships(ctx context.Context, abookID, contactID string, categories []string, groups map[string]string) error {
	if _, err := s.gw.Delete(ctx, rowstore.TableGroupUser, rowstore.Filter{"contact_id": contactID}); err != nil {
		return err
	}

	for _, name := range categories {
		gid, ok := groups[name]
		if !ok {
			var err error
			gid, err = s.gw.Insert(ctx, rowstore.TableGroups,
				[]string{"abook_id", "name", "vcard", "etag", "uri", "cuid"},
				[]any{abookID, name, nil, nil, nil, nil})
			if err != nil {
				return err
			}
			groups[name] = gid
		}
		if _, err := s.gw.Insert(ctx, rowstore.TableGroupUser, []string{"group_id", "contact_id"}, []any{gid, contactID}); err != nil {
			return err
		}
	}
	return nil
}

type contactRow struct {
	name         string
	email        string
	firstname    string
	surname      string
	organization string
	uid          string
	categories   []string
}

func extract(card vcard.Card) contactRow {
	row := contactRow{
		name:         card.PreferredValue(vcard.FieldFormattedName),
		email:        strings.Join(card.Values(vcard.FieldEmail), ", "),
		organization: strings.Split(card.Value(vcard.FieldOrganization), ";")[0],
		uid:          card.Value(vcard.FieldUID),
	}
	if n := card.Name(); n != nil {
		row.firstname, row.surname = n.GivenName, n.FamilyName
	}
	if row.name == "" {
		row.name = strings.TrimSpace(row.firstname + " " + row.surname)
	}
	if row.name == "" {
		row.name = row.organization
	}

	seen := make(map[string]bool)
	for _, v := range card.Values(vcard.FieldCategories) {
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c != "" && !seen[c] {
				seen[c] = true
				row.categories = append(row.categories, c)
			}
		}
	}
	return row
}

func encode(card vcard.Card) (string, error) {
	if card == nil {
		card = vcard.Card{}
	}
	if card.Value(vcard.FieldVersion) == "" {
		card = maps.Clone(card)
		card.SetValue(vcard.FieldVersion, "3.0")
	}
	var buf bytes.Buffer
	if err := vcard.NewEncoder(&buf).Encode(card); err != nil {
		return "", fmt.Errorf("encode vcard: %w", err)
	}
	return buf.String(), nil
}
