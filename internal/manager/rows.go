package manager

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/carddavsync/internal/bitfield"
	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
)

type accountRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	AccountName    string         `db:"accountname"`
	Username       string         `db:"username"`
	Password       string         `db:"password"`
	DiscoveryURL   sql.NullString `db:"discovery_url"`
	RediscoverTime int64          `db:"rediscover_time"`
	LastDiscovered int64          `db:"last_discovered"`
	PresetName     sql.NullString `db:"presetname"`
	Flags          int64          `db:"flags"`
}

func (r accountRow) flags() bitfield.Set {
	return bitfield.Set(r.Flags)
}

// toModel converts the row; the password is left as stored.
func (r accountRow) toModel() *models.Account {
	f := models.AccountFlags.Decode(r.flags())
	return &models.Account{
		ID:                  r.ID,
		UserID:              r.UserID,
		AccountName:         r.AccountName,
		Username:            r.Username,
		Password:            r.Password,
		DiscoveryURL:        r.DiscoveryURL.String,
		RediscoverTime:      r.RediscoverTime,
		LastDiscovered:      r.LastDiscovered,
		PresetName:          r.PresetName.String,
		PreemptiveBasicAuth: f[models.FieldPreemptiveBasicAuth],
		SSLNoVerify:         f[models.FieldSSLNoVerify],
	}
}

type abookRow struct {
	ID          string `db:"id"`
	AccountID   string `db:"account_id"`
	Name        string `db:"name"`
	URL         string `db:"url"`
	Flags       int64  `db:"flags"`
	LastUpdated int64  `db:"last_updated"`
	RefreshTime int64  `db:"refresh_time"`
	SyncToken   string `db:"sync_token"`
}

func (r abookRow) flags() bitfield.Set {
	return bitfield.Set(r.Flags)
}

func (r abookRow) toModel() *models.Addressbook {
	f := models.AddressbookFlags.Decode(r.flags())
	return &models.Addressbook{
		ID:                 r.ID,
		AccountID:          r.AccountID,
		Name:               r.Name,
		URL:                r.URL,
		RefreshTime:        r.RefreshTime,
		LastUpdated:        r.LastUpdated,
		SyncToken:          r.SyncToken,
		Active:             f[models.FieldActive],
		UseCategories:      f[models.FieldUseCategories],
		Discovered:         f[models.FieldDiscovered],
		Readonly:           f[models.FieldReadonly],
		RequireAlwaysEmail: f[models.FieldRequireAlwaysEmail],
		Template:           f[models.FieldTemplate],
	}
}

// field describes whether a column must be present on insert and whether it
// may be changed later.
type field struct {
	name      string
	mandatory bool
	updatable bool
}

type rowSpec struct {
	fields []field
	flags  bitfield.Table
}

var accountSpec = rowSpec{
	fields: []field{
		{models.FieldAccountName, true, true},
		{models.FieldUsername, true, true},
		{models.FieldPassword, true, true},
		{models.FieldDiscoveryURL, false, true},
		{models.FieldRediscoverTime, false, true},
		{models.FieldLastDiscovered, false, true},
		{models.FieldPresetName, false, false},
		{models.FieldPreemptiveBasicAuth, false, true},
		{models.FieldSSLNoVerify, false, true},
	},
	flags: models.AccountFlags,
}

var abookSpec = rowSpec{
	fields: []field{
		{models.FieldAccountID, true, false},
		{models.FieldName, true, true},
		{models.FieldURL, true, false},
		{models.FieldRefreshTime, false, true},
		{models.FieldLastUpdated, false, true},
		{models.FieldSyncToken, true, true},
		{models.FieldActive, false, true},
		{models.FieldUseCategories, false, true},
		{models.FieldDiscovered, false, false},
		{models.FieldReadonly, false, true},
		{models.FieldRequireAlwaysEmail, false, true},
		{models.FieldTemplate, false, false},
	},
	flags: models.AddressbookFlags,
}

// preparedRow is a validated set of column values. Flag attributes are kept
// apart until the stored flags they apply to are known.
type preparedRow struct {
	cols  []string
	vals  []any
	flags map[string]bool
	table bitfield.Table
}

// prepare validates values against the field table. Only listed fields are
// taken from values; others are ignored.
func (s rowSpec) prepare(values map[string]any, isInsert bool) (preparedRow, error) {
	p := preparedRow{flags: make(map[string]bool), table: s.flags}

	for _, f := range s.fields {
		v, ok := values[f.name]
		if !ok {
			if isInsert && f.mandatory {
				return preparedRow{}, fmt.Errorf("%w: mandatory field %s missing", common.ErrorValidation, f.name)
			}
			continue
		}
		if !isInsert && !f.updatable {
			return preparedRow{}, fmt.Errorf("%w: attempt to update non-updatable field %s", common.ErrorValidation, f.name)
		}

		if _, isFlag := s.flags[f.name]; isFlag {
			on, ok := v.(bool)
			if !ok {
				return preparedRow{}, fmt.Errorf("%w: field %s must be a boolean", common.ErrorValidation, f.name)
			}
			p.flags[f.name] = on
			continue
		}

		p.cols = append(p.cols, f.name)
		p.vals = append(p.vals, v)
	}
	return p, nil
}

func (p preparedRow) empty() bool {
	return len(p.cols) == 0 && len(p.flags) == 0
}

// columns returns the final column list. A flags column is appended only
// when some flag attribute was supplied; it starts from init.
func (p preparedRow) columns(init bitfield.Set) ([]string, []any) {
	cols := append([]string(nil), p.cols...)
	vals := append([]any(nil), p.vals...)
	if set, ok := p.table.Apply(init, p.flags); ok {
		cols = append(cols, "flags")
		vals = append(vals, int64(set))
	}
	return cols, vals
}
