package models

type Account struct {
	ID                  string
	UserID              string
	AccountName         string
	Username            string
	Password            string
	DiscoveryURL        string
	RediscoverTime      int64
	LastDiscovered      int64
	PresetName          string
	PreemptiveBasicAuth bool
	SSLNoVerify         bool
}

// AccountSettings is a partial account record used for inserts and updates.
// Nil fields are not part of the operation.
type AccountSettings struct {
	AccountName         *string
	Username            *string
	Password            *string
	DiscoveryURL        *string
	RediscoverTime      *int64
	LastDiscovered      *int64
	PresetName          *string
	PreemptiveBasicAuth *bool
	SSLNoVerify         *bool
}

// Values returns the present fields keyed by column name.
func (s AccountSettings) Values() map[string]any {
	v := make(map[string]any)
	putString(v, FieldAccountName, s.AccountName)
	putString(v, FieldUsername, s.Username)
	putString(v, FieldPassword, s.Password)
	putString(v, FieldDiscoveryURL, s.DiscoveryURL)
	putInt(v, FieldRediscoverTime, s.RediscoverTime)
	putInt(v, FieldLastDiscovered, s.LastDiscovered)
	putString(v, FieldPresetName, s.PresetName)
	putBool(v, FieldPreemptiveBasicAuth, s.PreemptiveBasicAuth)
	putBool(v, FieldSSLNoVerify, s.SSLNoVerify)
	return v
}

// Merge returns a copy of a with every present field of s applied.
func (s AccountSettings) Merge(a Account) Account {
	setString(&a.AccountName, s.AccountName)
	setString(&a.Username, s.Username)
	setString(&a.Password, s.Password)
	setString(&a.DiscoveryURL, s.DiscoveryURL)
	setInt(&a.RediscoverTime, s.RediscoverTime)
	setInt(&a.LastDiscovered, s.LastDiscovered)
	setString(&a.PresetName, s.PresetName)
	setBool(&a.PreemptiveBasicAuth, s.PreemptiveBasicAuth)
	setBool(&a.SSLNoVerify, s.SSLNoVerify)
	return a
}

func putString(m map[string]any, k string, v *string) {
	if v != nil {
		m[k] = *v
	}
}

func putInt(m map[string]any, k string, v *int64) {
	if v != nil {
		m[k] = *v
	}
}

func putBool(m map[string]any, k string, v *bool) {
	if v != nil {
		m[k] = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
