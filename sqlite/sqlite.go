// Package sqlite implements docstore collections on an embedded SQLite
// database. All collections share one documents table; a collection is a
// name column value, so creating one needs no DDL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jacentio/cellgraph/docstore"
)

// DB is an open SQLite document database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to an in-memory database is a separate database.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Collection returns a handle on the named collection.
func (d *DB) Collection(name string) docstore.Collection {
	return &Collection{db: d.db, name: name}
}

// Collection is a docstore.Collection backed by rows of the documents table.
type Collection struct {
	db   *sql.DB
	name string
}

var _ docstore.Collection = (*Collection)(nil)

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Get retrieves a document by id.
func (c *Collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	var rev int64
	var body string
	err := c.db.QueryRowContext(ctx,
		`SELECT rev, body FROM documents WHERE collection = ? AND id = ?`,
		c.name, id,
	).Scan(&rev, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return decodeBody(rev, body)
}

// Put creates or updates a document, enforcing the revision check.
func (c *Collection) Put(ctx context.Context, doc docstore.Document) (int64, error) {
	id := doc.ID()
	if id == "" {
		return 0, docstore.ErrMissingID
	}
	rev := doc.Rev()

	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != docstore.RevField {
			body[k] = v
		}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshaling document: %w", err)
	}

	var res sql.Result
	if rev == 0 {
		res, err = c.db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, rev, body) VALUES (?, ?, 1, ?)
			ON CONFLICT(collection, id) DO NOTHING`,
			c.name, id, string(b),
		)
	} else {
		res, err = c.db.ExecContext(ctx, `
			UPDATE documents SET rev = rev + 1, body = ?
			WHERE collection = ? AND id = ? AND rev = ?`,
			string(b), c.name, id, rev,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("writing document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("writing document: %w", err)
	}
	if n == 0 {
		return 0, docstore.ErrConflict
	}
	return rev + 1, nil
}

// Remove deletes a document by id.
func (c *Collection) Remove(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		c.name, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// BulkDelete deletes every listed document in one statement.
func (c *Collection) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	list, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling ids: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = ? AND id IN (SELECT value FROM json_each(?))`,
		c.name, string(list),
	)
	if err != nil {
		return fmt.Errorf("bulk deleting documents: %w", err)
	}
	return nil
}

// Find returns matching documents in insertion order.
func (c *Collection) Find(ctx context.Context, sel *docstore.Selector, opts docstore.FindOptions) ([]docstore.Document, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.Unsatisfiable() {
		return []docstore.Document{}, nil
	}

	where, args, err := whereClause(sel)
	if err != nil {
		return nil, err
	}

	query := `SELECT rev, body FROM documents WHERE collection = ?` + where + ` ORDER BY seq`
	args = append([]any{c.name}, args...)
	if opts.Limit > 0 || opts.Skip > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(opts.Skip, 0))
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		var rev int64
		var body string
		if err := rows.Scan(&rev, &body); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc, err := decodeBody(rev, body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc.Project(opts.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// whereClause translates selector clauses into AND-ed json_extract predicates.
func whereClause(sel *docstore.Selector) (string, []any, error) {
	var b strings.Builder
	var args []any
	for _, c := range sel.Clauses() {
		path := "$." + c.Field
		switch c.Op {
		case docstore.OpEq:
			if c.Value == nil {
				b.WriteString(` AND json_extract(body, ?) IS NULL`)
				args = append(args, path)
				continue
			}
			b.WriteString(` AND json_extract(body, ?) = ?`)
			args = append(args, path, sqlValue(c.Value))
		case docstore.OpGte:
			b.WriteString(` AND json_extract(body, ?) >= ?`)
			args = append(args, path, sqlValue(c.Value))
		case docstore.OpLte:
			b.WriteString(` AND json_extract(body, ?) <= ?`)
			args = append(args, path, sqlValue(c.Value))
		case docstore.OpIn:
			list, err := json.Marshal(c.Values)
			if err != nil {
				return "", nil, fmt.Errorf("marshaling %s values: %w", c.Field, err)
			}
			b.WriteString(` AND json_extract(body, ?) IN (SELECT value FROM json_each(?))`)
			args = append(args, path, string(list))
		}
	}
	return b.String(), args, nil
}

// sqlValue maps a JSON scalar to the value json_extract yields for it.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	}
	if n, ok := docstore.AsInt64(v); ok {
		return n
	}
	if f, ok := docstore.AsFloat64(v); ok {
		return f
	}
	return v
}

func decodeBody(rev int64, body string) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	doc[docstore.RevField] = rev
	return doc, nil
}
