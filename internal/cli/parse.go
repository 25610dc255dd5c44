package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/models"
)

// splitPairs turns "key=value" arguments into a map. Keys are the column
// names of the settings.
func splitPairs(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", common.ErrorValidation, a)
		}
		kv[strings.ToLower(k)] = v
	}
	return kv, nil
}

func parseBool(k, v string) (*bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean, got %q", common.ErrorValidation, k, v)
	}
	return &b, nil
}

// parseSeconds accepts plain seconds or a Go duration such as "1h30m".
func parseSeconds(k, v string) (*int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return &n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be seconds or a duration, got %q", common.ErrorValidation, k, v)
	}
	n := int64(d / time.Second)
	return &n, nil
}

// ParseAccountSettings builds account settings from key=value arguments.
func ParseAccountSettings(args []string) (models.AccountSettings, error) {
	var s models.AccountSettings
	kv, err := splitPairs(args)
	if err != nil {
		return s, err
	}

	for k, v := range kv {
		switch k {
		case models.FieldAccountName:
			s.AccountName = models.Ptr(v)
		case models.FieldUsername:
			s.Username = models.Ptr(v)
		case models.FieldPassword:
			s.Password = models.Ptr(v)
		case models.FieldDiscoveryURL:
			s.DiscoveryURL = models.Ptr(v)
		case models.FieldRediscoverTime:
			s.RediscoverTime, err = parseSeconds(k, v)
		case models.FieldPreemptiveBasicAuth:
			s.PreemptiveBasicAuth, err = parseBool(k, v)
		case models.FieldSSLNoVerify:
			s.SSLNoVerify, err = parseBool(k, v)
		default:
			err = fmt.Errorf("%w: unknown account attribute %q", common.ErrorValidation, k)
		}
		if err != nil {
			return models.AccountSettings{}, err
		}
	}
	return s, nil
}

// ParseAddressbookSettings builds addressbook settings from key=value
// arguments. Only attributes a user may set are accepted.
func ParseAddressbookSettings(args []string) (models.AddressbookSettings, error) {
	var s models.AddressbookSettings
	kv, err := splitPairs(args)
	if err != nil {
		return s, err
	}

	for k, v := range kv {
		switch k {
		case models.FieldName:
			s.Name = models.Ptr(v)
		case models.FieldRefreshTime:
			s.RefreshTime, err = parseSeconds(k, v)
		case models.FieldActive:
			s.Active, err = parseBool(k, v)
		case models.FieldUseCategories:
			s.UseCategories, err = parseBool(k, v)
		case models.FieldReadonly:
			s.Readonly, err = parseBool(k, v)
		case models.FieldRequireAlwaysEmail:
			s.RequireAlwaysEmail, err = parseBool(k, v)
		default:
			err = fmt.Errorf("%w: unknown addressbook attribute %q", common.ErrorValidation, k)
		}
		if err != nil {
			return models.AddressbookSettings{}, err
		}
	}
	return s, nil
}
