package manager

import (
	"context"

	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/naming"
)

// SaveTemplate creates or updates the template addressbook of an account.
// When the template is created, fixed carries the attributes an admin
// preset enforces; they win over s.
func (m *Manager) SaveTemplate(ctx context.Context, accountID string, s, fixed models.AddressbookSettings) (string, error) {
	tmpl, err := m.TemplateForAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if tmpl != nil {
		return tmpl.ID, m.UpdateAddressbook(ctx, tmpl.ID, s)
	}

	s = s.With(fixed).With(models.AddressbookSettings{
		AccountID:  &accountID,
		Discovered: models.Ptr(false),
		Template:   models.Ptr(true),
		URL:        models.Ptr(""),
		SyncToken:  models.Ptr(""),
	})
	if s.Name == nil {
		s.Name = models.Ptr(naming.DefaultTemplate)
	}
	return m.InsertAddressbook(ctx, s)
}

// TemplateSettings returns the settings new addressbooks of the account are
// created from: those of its template addressbook, or defaults if it has
// none.
func (m *Manager) TemplateSettings(ctx context.Context, accountID string, defaults models.AddressbookSettings) (models.AddressbookSettings, error) {
	tmpl, err := m.TemplateForAccount(ctx, accountID)
	if err != nil {
		return models.AddressbookSettings{}, err
	}
	if tmpl == nil {
		return defaults, nil
	}
	return models.SettingsOf(*tmpl), nil
}
