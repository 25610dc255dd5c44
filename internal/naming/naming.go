// Package naming turns an addressbook name template into the name of a
// newly discovered addressbook.
//
// Placeholders:
//
//	%u  account username (substituted first)
//	%N  display name reported by the server
//	%D  description reported by the server
//	%a  account name
//	%c  last path segment of the addressbook URI
//	%k  preset name of the account
//
// An empty result falls back to the base name.
package naming

import (
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/models"
)

const DefaultTemplate = "%N"

func Resolve(template string, acc models.Account, srv models.ServerAddressbook) string {
	name := strings.ReplaceAll(template, "%u", acc.Username)

	var displayName, description string
	if strings.Contains(name, "%N") {
		displayName = srv.DisplayName
	}
	if strings.Contains(name, "%D") {
		description = srv.Description
	}

	r := strings.NewReplacer(
		"%N", displayName,
		"%D", description,
		"%a", acc.AccountName,
		"%c", srv.BaseName,
		"%k", acc.PresetName,
	)
	name = r.Replace(name)

	if name == "" {
		return srv.BaseName
	}
	return name
}

// BaseName returns the last non-empty path segment of uri.
func BaseName(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
