package naming

import (
	"testing"

	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	acc := models.Account{AccountName: "Work", Username: "alice", PresetName: "corp"}
	srv := models.ServerAddressbook{
		URI:         "https://dav.example.com/alice/contacts/",
		DisplayName: "Contacts",
		Description: "Shared team",
		BaseName:    "contacts",
	}

	tests := []struct {
		name     string
		template string
		srv      models.ServerAddressbook
		want     string
	}{
		{"account and display name", "%a - %N", srv, "Work - Contacts"},
		{"empty template falls back", "", models.ServerAddressbook{BaseName: "default"}, "default"},
		{"default template", DefaultTemplate, srv, "Contacts"},
		{"default template without display name", DefaultTemplate, models.ServerAddressbook{BaseName: "default"}, "default"},
		{"username first", "%u (%c)", srv, "alice (contacts)"},
		{"description and preset", "%k: %D", srv, "corp: Shared team"},
		{"literal text kept", "Addresses", srv, "Addresses"},
		{"single pass", "%a", models.ServerAddressbook{}, "Work"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.template, acc, tt.srv))
		})
	}
}

func TestResolve_NoRecursiveSubstitution(t *testing.T) {
	acc := models.Account{AccountName: "%N", Username: "%a"}
	srv := models.ServerAddressbook{DisplayName: "X", BaseName: "b"}

	// %u is replaced first, so its value takes part in the table pass;
	// values inserted by the table pass are not expanded again.
	assert.Equal(t, "%N", Resolve("%u", acc, srv))
	assert.Equal(t, "%N/X", Resolve("%a/%N", acc, srv))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "contacts", BaseName("https://dav.example.com/alice/contacts/"))
	assert.Equal(t, "book", BaseName("/dav/book"))
	assert.Equal(t, "x", BaseName("x"))
}
