// Package presets holds the admin-defined account presets. A preset
// describes an account every user gets automatically, the attributes users
// may not change, and the defaults for its discovered addressbooks.
//
// Presets are read from a YAML file:
//
//	presets:
//	  corp:
//	    accountname: Corporate
//	    username: "%u"
//	    password: "%p"
//	    discovery_url: https://dav.example.com/
//	    fixed: [username, discovery_url, readonly]
//	    addressbook:
//	      name: "%a (%N)"
//	      readonly: true
//
// Preset names are case-insensitive.
package presets

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/dmitrijs2005/carddavsync/internal/naming"
	"github.com/spf13/viper"
)

type AddressbookDefaults struct {
	Name               *string `mapstructure:"name"`
	Active             *bool   `mapstructure:"active"`
	Readonly           *bool   `mapstructure:"readonly"`
	RefreshTime        *int64  `mapstructure:"refresh_time"`
	UseCategories      *bool   `mapstructure:"use_categories"`
	RequireAlwaysEmail *bool   `mapstructure:"require_always_email"`
}

type Preset struct {
	Name                string              `mapstructure:"-"`
	AccountName         string              `mapstructure:"accountname"`
	Username            string              `mapstructure:"username"`
	Password            string              `mapstructure:"password"`
	DiscoveryURL        string              `mapstructure:"discovery_url"`
	RediscoverTime      int64               `mapstructure:"rediscover_time"`
	PreemptiveBasicAuth bool                `mapstructure:"preemptive_basic_auth"`
	SSLNoVerify         bool                `mapstructure:"ssl_noverify"`
	Hide                bool                `mapstructure:"hide"`
	Fixed               []string            `mapstructure:"fixed"`
	Addressbook         AddressbookDefaults `mapstructure:"addressbook"`
}

type file struct {
	Presets map[string]Preset `mapstructure:"presets"`
}

var fixableAccountFields = []string{
	models.FieldAccountName, models.FieldUsername, models.FieldPassword, models.FieldDiscoveryURL,
	models.FieldRediscoverTime, models.FieldPreemptiveBasicAuth, models.FieldSSLNoVerify,
}

var fixableAddressbookFields = []string{
	models.FieldName, models.FieldActive, models.FieldReadonly, models.FieldRefreshTime,
	models.FieldUseCategories, models.FieldRequireAlwaysEmail,
}

// Policy is the set of configured presets. The zero value has none.
type Policy struct {
	presets map[string]Preset
}

// Load reads the presets file at path. A missing file yields an empty
// policy.
func Load(path string) (*Policy, error) {
	p := &Policy{presets: map[string]Preset{}}
	if path == "" {
		return p, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, fmt.Errorf("reading presets %s: %w", path, err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("parsing presets %s: %w", path, err)
	}

	for name, pr := range f.Presets {
		pr.Name = name
		if err := pr.validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		p.presets[name] = pr
	}
	return p, nil
}

func (pr Preset) validate() error {
	if pr.AccountName == "" {
		return fmt.Errorf("%w: accountname is required", common.ErrorValidation)
	}
	if pr.DiscoveryURL == "" {
		return fmt.Errorf("%w: discovery_url is required", common.ErrorValidation)
	}
	for _, f := range pr.Fixed {
		if !slices.Contains(fixableAccountFields, f) && !slices.Contains(fixableAddressbookFields, f) {
			return fmt.Errorf("%w: attribute %s cannot be fixed", common.ErrorValidation, f)
		}
	}
	return nil
}

// Names returns the preset names in sorted order.
func (p *Policy) Names() []string {
	names := make([]string, 0, len(p.presets))
	for n := range p.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p *Policy) Get(name string) (Preset, error) {
	pr, ok := p.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: no preset named %q", common.ErrorNotFound, name)
	}
	return pr, nil
}

func (pr Preset) IsFixed(field string) bool {
	return slices.Contains(pr.Fixed, field)
}

// AccountSettings returns the settings a preset account is created with.
func (pr Preset) AccountSettings() models.AccountSettings {
	s := models.AccountSettings{
		AccountName:         models.Ptr(pr.AccountName),
		Username:            models.Ptr(pr.Username),
		Password:            models.Ptr(pr.Password),
		DiscoveryURL:        models.Ptr(pr.DiscoveryURL),
		PresetName:          models.Ptr(pr.Name),
		PreemptiveBasicAuth: models.Ptr(pr.PreemptiveBasicAuth),
		SSLNoVerify:         models.Ptr(pr.SSLNoVerify),
	}
	if pr.RediscoverTime > 0 {
		s.RediscoverTime = models.Ptr(pr.RediscoverTime)
	}
	return s
}

// FixedAccountSettings returns the fixed account attributes of the preset,
// to be written over a stored preset account.
func (pr Preset) FixedAccountSettings() models.AccountSettings {
	all := pr.AccountSettings()
	var s models.AccountSettings
	for _, f := range pr.Fixed {
		switch f {
		case models.FieldAccountName:
			s.AccountName = all.AccountName
		case models.FieldUsername:
			s.Username = all.Username
		case models.FieldPassword:
			s.Password = all.Password
		case models.FieldDiscoveryURL:
			s.DiscoveryURL = all.DiscoveryURL
		case models.FieldRediscoverTime:
			s.RediscoverTime = all.RediscoverTime
		case models.FieldPreemptiveBasicAuth:
			s.PreemptiveBasicAuth = all.PreemptiveBasicAuth
		case models.FieldSSLNoVerify:
			s.SSLNoVerify = all.SSLNoVerify
		}
	}
	return s
}

// AddressbookTemplate returns the settings discovered addressbooks of the
// preset are created from.
func (pr Preset) AddressbookTemplate() models.AddressbookSettings {
	d := pr.Addressbook
	s := models.AddressbookSettings{
		Name:               d.Name,
		Active:             d.Active,
		Readonly:           d.Readonly,
		RefreshTime:        d.RefreshTime,
		UseCategories:      d.UseCategories,
		RequireAlwaysEmail: d.RequireAlwaysEmail,
	}
	if s.Name == nil {
		s.Name = models.Ptr(naming.DefaultTemplate)
	}
	return s
}

// FixedAddressbookSettings returns the fixed addressbook attributes. The
// name is only applied to new addressbooks, since it is a template.
func (pr Preset) FixedAddressbookSettings() models.AddressbookSettings {
	all := pr.AddressbookTemplate()
	var s models.AddressbookSettings
	for _, f := range pr.Fixed {
		switch f {
		case models.FieldActive:
			s.Active = all.Active
		case models.FieldReadonly:
			s.Readonly = all.Readonly
		case models.FieldRefreshTime:
			s.RefreshTime = all.RefreshTime
		case models.FieldUseCategories:
			s.UseCategories = all.UseCategories
		case models.FieldRequireAlwaysEmail:
			s.RequireAlwaysEmail = all.RequireAlwaysEmail
		}
	}
	return s
}

// CheckAccountUpdate rejects user changes to fixed account attributes.
func (pr Preset) CheckAccountUpdate(s models.AccountSettings) error {
	for f := range s.Values() {
		if pr.IsFixed(f) {
			return fmt.Errorf("%w: attribute %s is fixed by preset %q", common.ErrorValidation, f, pr.Name)
		}
	}
	return nil
}

// CheckAddressbookUpdate rejects user changes to fixed addressbook
// attributes.
func (pr Preset) CheckAddressbookUpdate(s models.AddressbookSettings) error {
	for f := range s.Values() {
		if pr.IsFixed(f) {
			return fmt.Errorf("%w: attribute %s is fixed by preset %q", common.ErrorValidation, f, pr.Name)
		}
	}
	return nil
}

// TemplateDefaults returns the addressbook defaults for an account created
// from presetName, or the built-in defaults for manual accounts.
func (p *Policy) TemplateDefaults(presetName string) models.AddressbookSettings {
	if pr, ok := p.presets[presetName]; ok && presetName != "" {
		return pr.AddressbookTemplate()
	}
	return models.AddressbookSettings{Name: models.Ptr(naming.DefaultTemplate)}
}
