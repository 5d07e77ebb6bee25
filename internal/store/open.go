package store

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open builds the store named by backend. dsn is the file path for the file
// and sqlite backends and the connection string for postgres. schema, when
// non-nil, overrides the embedded SQL schemas. The returned close function
// is never nil.
func Open(ctx context.Context, backend, dsn string, schema fs.FS) (zoo.Repository, func() error, error) {
	noop := func() error { return nil }

	switch backend {
	case BackendMemory:
		return NewMemory(), noop, nil
	case BackendFile:
		return NewFile(dsn), noop, nil
	case BackendSQLite, BackendPostgres:
		d := SQLite
		if backend == BackendPostgres {
			d = Postgres
		}
		var opts []SQLOption
		if schema != nil {
			opts = append(opts, WithSchemaFS(schema))
		}
		s, err := OpenSQL(ctx, d, dsn, opts...)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
	}
}
