package models

type Addressbook struct {
	ID                 string
	AccountID          string
	Name               string
	URL                string
	RefreshTime        int64
	LastUpdated        int64
	SyncToken          string
	Active             bool
	UseCategories      bool
	Discovered         bool
	Readonly           bool
	RequireAlwaysEmail bool
	Template           bool
}

// AddressbookSettings is a partial addressbook record used for inserts and
// updates. Nil fields are not part of the operation.
type AddressbookSettings struct {
	AccountID          *string
	Name               *string
	URL                *string
	RefreshTime        *int64
	LastUpdated        *int64
	SyncToken          *string
	Active             *bool
	UseCategories      *bool
	Discovered         *bool
	Readonly           *bool
	RequireAlwaysEmail *bool
	Template           *bool
}

// Values returns the present fields keyed by column name.
func (s AddressbookSettings) Values() map[string]any {
	v := make(map[string]any)
	putString(v, FieldAccountID, s.AccountID)
	putString(v, FieldName, s.Name)
	putString(v, FieldURL, s.URL)
	putInt(v, FieldRefreshTime, s.RefreshTime)
	putInt(v, FieldLastUpdated, s.LastUpdated)
	putString(v, FieldSyncToken, s.SyncToken)
	putBool(v, FieldActive, s.Active)
	putBool(v, FieldUseCategories, s.UseCategories)
	putBool(v, FieldDiscovered, s.Discovered)
	putBool(v, FieldReadonly, s.Readonly)
	putBool(v, FieldRequireAlwaysEmail, s.RequireAlwaysEmail)
	putBool(v, FieldTemplate, s.Template)
	return v
}

// SettingsOf returns the updatable settings of an existing addressbook, for
// use as a template of new ones.
func SettingsOf(a Addressbook) AddressbookSettings {
	return AddressbookSettings{
		Name:               Ptr(a.Name),
		RefreshTime:        Ptr(a.RefreshTime),
		Active:             Ptr(a.Active),
		UseCategories:      Ptr(a.UseCategories),
		Readonly:           Ptr(a.Readonly),
		RequireAlwaysEmail: Ptr(a.RequireAlwaysEmail),
	}
}

// With returns a copy of s where every present field of o replaces the
// corresponding field of s.
func (s AddressbookSettings) With(o AddressbookSettings) AddressbookSettings {
	overlay(&s.AccountID, o.AccountID)
	overlay(&s.Name, o.Name)
	overlay(&s.URL, o.URL)
	overlay(&s.RefreshTime, o.RefreshTime)
	overlay(&s.LastUpdated, o.LastUpdated)
	overlay(&s.SyncToken, o.SyncToken)
	overlay(&s.Active, o.Active)
	overlay(&s.UseCategories, o.UseCategories)
	overlay(&s.Discovered, o.Discovered)
	overlay(&s.Readonly, o.Readonly)
	overlay(&s.RequireAlwaysEmail, o.RequireAlwaysEmail)
	overlay(&s.Template, o.Template)
	return s
}

func overlay[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
