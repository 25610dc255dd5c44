package models

import "github.com/dmitrijs2005/carddavsync/internal/bitfield"

// Column names of the accounts table.
const (
	FieldAccountName         = "accountname"
	FieldUsername            = "username"
	FieldPassword            = "password"
	FieldDiscoveryURL        = "discovery_url"
	FieldRediscoverTime      = "rediscover_time"
	FieldLastDiscovered      = "last_discovered"
	FieldPresetName          = "presetname"
	FieldPreemptiveBasicAuth = "preemptive_basic_auth"
	FieldSSLNoVerify         = "ssl_noverify"
)

// Column names of the addressbooks table.
const (
	FieldAccountID          = "account_id"
	FieldName               = "name"
	FieldURL                = "url"
	FieldRefreshTime        = "refresh_time"
	FieldLastUpdated        = "last_updated"
	FieldSyncToken          = "sync_token"
	FieldActive             = "active"
	FieldUseCategories      = "use_categories"
	FieldDiscovered         = "discovered"
	FieldReadonly           = "readonly"
	FieldRequireAlwaysEmail = "require_always_email"
	FieldTemplate           = "template"
)

const (
	BitActive             bitfield.Bit = 0
	BitUseCategories      bitfield.Bit = 1
	BitDiscovered         bitfield.Bit = 2
	BitReadonly           bitfield.Bit = 3
	BitRequireAlwaysEmail bitfield.Bit = 4
	BitTemplate           bitfield.Bit = 5

	BitPreemptiveBasicAuth bitfield.Bit = 0
	BitSSLNoVerify         bitfield.Bit = 1
)

// AddressbookFlags is the layout of the addressbooks.flags column.
var AddressbookFlags = bitfield.Table{
	FieldActive:             BitActive,
	FieldUseCategories:      BitUseCategories,
	FieldDiscovered:         BitDiscovered,
	FieldReadonly:           BitReadonly,
	FieldRequireAlwaysEmail: BitRequireAlwaysEmail,
	FieldTemplate:           BitTemplate,
}

// AccountFlags is the layout of the accounts.flags column.
var AccountFlags = bitfield.Table{
	FieldPreemptiveBasicAuth: BitPreemptiveBasicAuth,
	FieldSSLNoVerify:         BitSSLNoVerify,
}

// Flags a new row starts from before the supplied attributes are applied.
var (
	AddressbookFlagsDefault = bitfield.Mask(BitActive, BitUseCategories)
	AccountFlagsDefault     = bitfield.Set(0)
)

func Ptr[T any](v T) *T {
	return &v
}
