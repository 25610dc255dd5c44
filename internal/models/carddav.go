package models

import "github.com/emersion/go-vcard"

// ServerAddressbook is an addressbook collection reported by discovery.
type ServerAddressbook struct {
	URI         string
	DisplayName string
	Description string
	BaseName    string
}

// Connection carries everything needed to talk to a CardDAV server on
// behalf of one account. It is never persisted.
type Connection struct {
	DiscoveryURL        string
	Username            string
	Password            string
	BearerToken         string
	PreemptiveBasicAuth bool
	TLSVerify           bool
}

type SyncedCard struct {
	URI  string
	ETag string
	Card vcard.Card
}

// SyncResult is the outcome of one sync-collection exchange. Full is set
// when the exchange started without a sync token; Updated then lists every
// card of the collection.
type SyncResult struct {
	SyncToken string
	Full      bool
	Updated   []SyncedCard
	Deleted   []string
}
