package rowstore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(names ...string) error {
	for _, n := range names {
		if !identRe.MatchString(n) {
			return fmt.Errorf("invalid column name %q", n)
		}
	}
	return nil
}

// buildWhere renders filter as a WHERE clause with '?' placeholders. The
// columns are emitted in sorted order so the statement text is stable.
func buildWhere(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	cols := make([]string, 0, len(filter))
	for c := range filter {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	if err := checkIdent(cols...); err != nil {
		return "", nil, err
	}

	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		switch v := filter[c].(type) {
		case nil:
			conds = append(conds, c+" IS NULL")
		case []string:
			if len(v) == 0 {
				conds = append(conds, "1 = 0")
				continue
			}
			conds = append(conds, c+" IN (?)")
			args = append(args, v)
		default:
			conds = append(conds, c+" = ?")
			args = append(args, v)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// expand runs sqlx.In so that slice arguments become one placeholder per
// element, then rebinds the query for the target driver.
func expand(rebind func(string) string, query string, args []any) (string, []any, error) {
	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return "", nil, err
		}
	}
	return rebind(query), args, nil
}
