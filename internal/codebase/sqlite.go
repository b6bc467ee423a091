package codebase

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vibe-lang/vibe/internal/hashing"
	"github.com/vibe-lang/vibe/internal/lang"
	"github.com/vibe-lang/vibe/internal/parser"
)

// SQLiteStore persists the content-addressed store to a single file using
// modernc.org/sqlite, a pure-Go driver with no cgo toolchain dependency —
// the same reason the teacher's own test fixtures adopted it (see
// DESIGN.md's C4 entry: this module gives the dependency its first
// production use, the teacher only exercised it from test fixtures).
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS definitions (
	hash      TEXT PRIMARY KEY,
	source    TEXT NOT NULL,
	deps      TEXT NOT NULL -- comma-separated "name=hash" pairs
);
CREATE TABLE IF NOT EXISTS names (
	name TEXT PRIMARY KEY,
	hash TEXT NOT NULL
);
`

// OpenSQLite opens (creating if necessary) the sqlite file at path and
// returns a Persister backed by it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("codebase: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("codebase: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDefinition(d *Definition) error {
	var deps []string
	for name, h := range d.DepHash {
		deps = append(deps, string(name)+"="+string(h))
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO definitions (hash, source, deps) VALUES (?, ?, ?)`,
		string(d.Hash), lang.Pretty(d.Source), strings.Join(deps, ","),
	)
	return err
}

func (s *SQLiteStore) SaveName(name lang.Ident, h hashing.Hash) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO names (name, hash) VALUES (?, ?)`,
		string(name), string(h),
	)
	return err
}

// LoadAll reconstructs the in-memory store by re-parsing each definition's
// pretty-printed source (spec.md §4.1, §8 property 5's round-trip
// guarantee is exactly what makes this safe: Pretty(Parse(Pretty(e))) is
// expression-equivalent to e).
func (s *SQLiteStore) LoadAll() (map[hashing.Hash]*Definition, map[lang.Ident]hashing.Hash, error) {
	defs := map[hashing.Hash]*Definition{}
	names := map[lang.Ident]hashing.Hash{}

	rows, err := s.db.Query(`SELECT hash, source, deps FROM definitions`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var h, source, deps string
		if err := rows.Scan(&h, &source, &deps); err != nil {
			return nil, nil, err
		}
		expr, diags := parser.ParseExpr("<store>", source)
		if len(diags) > 0 {
			return nil, nil, fmt.Errorf("codebase: corrupt stored definition %s: %v", h, diags[0])
		}
		depHash := map[lang.Ident]hashing.Hash{}
		var depNames []lang.Ident
		if deps != "" {
			for _, pair := range strings.Split(deps, ",") {
				kv := strings.SplitN(pair, "=", 2)
				if len(kv) != 2 {
					continue
				}
				depHash[lang.Ident(kv[0])] = hashing.Hash(kv[1])
				depNames = append(depNames, lang.Ident(kv[0]))
			}
		}
		defs[hashing.Hash(h)] = &Definition{Hash: hashing.Hash(h), Source: expr, Deps: depNames, DepHash: depHash}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	nrows, err := s.db.Query(`SELECT name, hash FROM names`)
	if err != nil {
		return nil, nil, err
	}
	defer nrows.Close()
	for nrows.Next() {
		var name, h string
		if err := nrows.Scan(&name, &h); err != nil {
			return nil, nil, err
		}
		names[lang.Ident(name)] = hashing.Hash(h)
	}
	return defs, names, nrows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
