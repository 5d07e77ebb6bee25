package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the pure Go "sqlite" driver

	"github.com/smileynet/zoodesk"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Dialect describes the differences between supported SQL databases.
type Dialect struct {
	Name   string // Schema file is Name + ".sql".
	Driver string // database/sql driver name.
	// numbered placeholders ($1) instead of ?.
	numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
	Postgres = Dialect{Name: "postgres", Driver: "pgx", numbered: true}
)

func (d Dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(n), 10)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// SQL stores services in a "services" table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	newID   IDFunc
}

// SQLOption configures a SQL store.
type SQLOption func(*sqlOptions)

type sqlOptions struct {
	schema fs.FS
	newID  IDFunc
}

// WithSchemaFS reads DDL from fsys instead of the embedded schemas.
func WithSchemaFS(fsys fs.FS) SQLOption {
	return func(o *sqlOptions) { o.schema = fsys }
}

// WithSQLIDFunc overrides ID generation.
func WithSQLIDFunc(fn IDFunc) SQLOption {
	return func(o *sqlOptions) { o.newID = fn }
}

// OpenSQL connects to dsn with the dialect's driver and applies its schema.
func OpenSQL(ctx context.Context, d Dialect, dsn string, opts ...SQLOption) (*SQL, error) {
	o := sqlOptions{schema: zoodesk.Schema, newID: NewID}
	for _, opt := range opts {
		opt(&o)
	}

	ddl, err := fs.ReadFile(o.schema, d.Name+".sql")
	if err != nil {
		return nil, fmt.Errorf("store: reading %s schema: %w", d.Name, err)
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", d.Name, err)
	}
	if d == SQLite {
		// A single connection avoids SQLITE_BUSY between pooled writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", d.Name, err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: applying %s schema: %w", d.Name, err)
	}
	return &SQL{db: db, dialect: d, newID: o.newID}, nil
}

// Close releases the database handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

// List returns all services in insertion order.
func (s *SQL) List(ctx context.Context) ([]zoo.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM services ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: listing services: %w", err)
	}
	defer func() { _ = rows.Close() }()

	services := []zoo.Service{}
	for rows.Next() {
		var sv zoo.Service
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Description); err != nil {
			return nil, fmt.Errorf("store: scanning service: %w", err)
		}
		services = append(services, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing services: %w", err)
	}
	return services, nil
}

// Create inserts a new service under a fresh ID.
func (s *SQL) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	sv := zoo.Service{ID: s.newID(), Name: f.Name, Description: f.Description}
	_, err := s.db.ExecContext(ctx,
		s.dialect.bind(`INSERT INTO services (id, name, description) VALUES (?, ?, ?)`),
		sv.ID, sv.Name, sv.Description)
	if err != nil {
		return zoo.Service{}, fmt.Errorf("store: inserting service: %w", err)
	}
	return sv, nil
}

// Update replaces the fields of service id.
func (s *SQL) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	if err := f.Validate(); err != nil {
		return zoo.Service{}, err
	}
	res, err := s.db.ExecContext(ctx,
		s.dialect.bind(`UPDATE services SET name = ?, description = ? WHERE id = ?`),
		f.Name, f.Description, id)
	if err != nil {
		return zoo.Service{}, fmt.Errorf("store: updating service %q: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return zoo.Service{}, err
	}
	return zoo.Service{ID: id, Name: f.Name, Description: f.Description}, nil
}

// Delete removes service id.
func (s *SQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM services WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: deleting service %q: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// ErrUnknownBackend is returned by Open for unsupported backend names.
var ErrUnknownBackend = errors.New("store: unknown backend")
