package database

import (
	"strconv"
	"strings"
)

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// IsValid reports whether d is a supported backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

var (
	sqlitePrefixes = []string{"sqlite://", "file:"}
	sqliteSuffixes = []string{".db", ".sqlite", ".sqlite3"}
)

// DetectDriver infers the backend from a connection string. An empty string
// means the embedded SQLite database; anything unrecognised is treated as a
// PostgreSQL DSN.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	}
	for _, p := range sqlitePrefixes {
		if strings.HasPrefix(url, p) {
			return DriverSQLite
		}
	}
	for _, s := range sqliteSuffixes {
		if strings.HasSuffix(url, s) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}

// SQLitePathFromURL strips the sqlite:// scheme from url.
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// Rebind rewrites the ? placeholders of query into the driver's syntax.
// Queries are written once with ? and rebound per driver; ? characters
// inside single-quoted literals are left alone.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LockClause returns the row-locking suffix for SELECT statements.
// SQLite serialises writers at the connection level and has no row locks.
func (d Driver) LockClause() string {
	if d == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}
