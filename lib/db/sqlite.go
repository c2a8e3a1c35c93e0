package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// SQLiteDriverName is the database/sql driver every SQLite catalog is
	// opened with. Its connections carry TitleCollation and LowerFunc.
	SQLiteDriverName = "sqlite3_catalogo"

	// TitleCollation orders text the way a Spanish reader expects, ignoring
	// case: "amélie" < "El Ártico" < "Zorro".
	TitleCollation = "catalogo"

	// LowerFunc lower-cases full Unicode. SQLite's LOWER only folds ASCII.
	LowerFunc = "unicode_lower"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{ConnectHook: registerTextFuncs})
}

// registerTextFuncs runs once per pooled connection. A collator is not safe
// for concurrent use, so each connection gets its own.
func registerTextFuncs(conn *sqlite3.SQLiteConn) error {
	if err := conn.RegisterFunc(LowerFunc, strings.ToLower, true); err != nil {
		return err
	}
	c := collate.New(language.Spanish, collate.IgnoreCase)
	return conn.RegisterCollation(TitleCollation, c.CompareString)
}
