// Package rowstore is the relational row gateway used by the addressbook
// manager and the contact store. Tables are addressed by their short name
// ("accounts", "contacts", ...) and prefixed when the statement is built.
// Filters are conjoined equality / IN predicates.
package rowstore

import "context"

const (
	TableAccounts     = "accounts"
	TableAddressbooks = "addressbooks"
	TableContacts     = "contacts"
	TableGroups       = "groups"
	TableGroupUser    = "group_user"
	TableXSubtypes    = "xsubtypes"
)

// DefaultPrefix is the table prefix used by the bundled migrations.
const DefaultPrefix = "carddav_"

// Filter maps a column to the value it must equal. A []string value turns
// into an IN predicate; an empty list matches nothing. A nil value matches
// NULL.
type Filter map[string]any

// Gateway is the row store contract. Implementations are bound to one
// logical request and are not safe for concurrent use.
type Gateway interface {
	// Select scans the matching rows of table into dest, which must be a
	// pointer to a slice. Without cols all columns are selected.
	Select(ctx context.Context, dest any, table string, filter Filter, cols ...string) error
	// Insert adds one row and returns its id. A fresh id is generated when
	// cols does not contain "id".
	Insert(ctx context.Context, table string, cols []string, vals []any) (string, error)
	Update(ctx context.Context, table string, filter Filter, cols []string, vals []any) (int64, error)
	Delete(ctx context.Context, table string, filter Filter) (int64, error)

	StartTransaction(ctx context.Context, readonly bool) error
	EndTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}
