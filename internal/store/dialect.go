package store

import (
	"strconv"
	"strings"

	"github.com/walkgoal/apiserver/config"
)

// Dialect selects placeholder syntax for the SQL repositories.
// Queries are written with '?' placeholders and rebound for Postgres.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor maps a store driver name to its dialect.
func DialectFor(driver string) Dialect {
	if driver == config.StoreDriverPostgres {
		return DialectPostgres
	}
	return DialectSQLite
}

func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
