package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// repoFactories returns one fresh repository per backend under test.
func repoFactories(t *testing.T) map[string]func(t *testing.T) zoo.Repository {
	t.Helper()
	factories := map[string]func(t *testing.T) zoo.Repository{
		"memory": func(t *testing.T) zoo.Repository { return NewMemory() },
		"file": func(t *testing.T) zoo.Repository {
			return NewFile(filepath.Join(t.TempDir(), "services.json"))
		},
		"sqlite": func(t *testing.T) zoo.Repository {
			s, err := OpenSQL(context.Background(), SQLite, filepath.Join(t.TempDir(), "zoodesk.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	if dsn := os.Getenv("ZOODESK_TEST_POSTGRES_DSN"); dsn != "" {
		factories["postgres"] = func(t *testing.T) zoo.Repository {
			s, err := OpenSQL(context.Background(), Postgres, dsn)
			require.NoError(t, err)
			_, err = s.db.Exec(`DELETE FROM services`)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}
	}
	return factories
}

func TestRepository_Contract(t *testing.T) {
	for name, newRepo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			// Empty store lists nothing.
			got, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			// Create assigns distinct ids and keeps insertion order.
			tour, err := repo.Create(ctx, zoo.Fields{Name: "Feeding Tour", Description: "Daily 3pm"})
			require.NoError(t, err)
			assert.NotEmpty(t, tour.ID)
			walk, err := repo.Create(ctx, zoo.Fields{Name: "Night Walk"})
			require.NoError(t, err)
			assert.NotEqual(t, tour.ID, walk.ID)

			got, err = repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []zoo.Service{tour, walk}, got)

			// Update replaces fields in place.
			updated, err := repo.Update(ctx, tour.ID, zoo.Fields{Name: "Feeding Tour", Description: "Daily 4pm"})
			require.NoError(t, err)
			assert.Equal(t, zoo.Service{ID: tour.ID, Name: "Feeding Tour", Description: "Daily 4pm"}, updated)

			got, err = repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []zoo.Service{updated, walk}, got)

			// Delete removes exactly that record.
			require.NoError(t, repo.Delete(ctx, walk.ID))
			got, err = repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []zoo.Service{updated}, got)

			// Missing ids are reported as not found.
			_, err = repo.Update(ctx, "missing-id", zoo.Fields{Name: "x"})
			assert.True(t, errors.Is(err, zoo.ErrNotFound), "update missing: %v", err)
			err = repo.Delete(ctx, walk.ID)
			assert.True(t, errors.Is(err, zoo.ErrNotFound), "delete twice: %v", err)

			// Invalid fields are rejected.
			_, err = repo.Create(ctx, zoo.Fields{Name: " "})
			assert.True(t, errors.Is(err, zoo.ErrValidation), "blank create: %v", err)
			_, err = repo.Update(ctx, updated.ID, zoo.Fields{})
			assert.True(t, errors.Is(err, zoo.ErrValidation), "blank update: %v", err)
		})
	}
}

func TestMemory_DeterministicIDs(t *testing.T) {
	n := 0
	m := NewMemory(WithIDFunc(func() string { n++; return fmt.Sprintf("svc-%d", n) }))

	s, err := m.Create(context.Background(), zoo.Fields{Name: "Tour"})
	require.NoError(t, err)
	assert.Equal(t, "svc-1", s.ID)
}

func TestMemory_ListReturnsCopy(t *testing.T) {
	m := NewMemory(WithServices(zoo.Service{ID: "1", Name: "Tour"}))

	got, err := m.List(context.Background())
	require.NoError(t, err)
	got[0].Name = "changed"

	again, _ := m.List(context.Background())
	assert.Equal(t, "Tour", again[0].Name)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "services.json")
	created, err := NewFile(path).Create(context.Background(), zoo.Fields{Name: "Tour"})
	require.NoError(t, err)

	got, err := NewFile(path).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []zoo.Service{created}, got)
}

func TestFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFile(path).List(context.Background())
	assert.ErrorContains(t, err, "parsing")
}

func TestSQL_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "zoodesk.db")

	s, err := OpenSQL(ctx, SQLite, path)
	require.NoError(t, err)
	created, err := s.Create(ctx, zoo.Fields{Name: "Tour", Description: "Old"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQL(ctx, SQLite, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []zoo.Service{created}, got)
}

func TestSQL_SchemaOverride(t *testing.T) {
	schema := fstest.MapFS{"sqlite.sql": &fstest.MapFile{Data: []byte("CREATE TABLE broken (")}}

	_, err := OpenSQL(context.Background(), SQLite, filepath.Join(t.TempDir(), "x.db"), WithSchemaFS(schema))
	assert.ErrorContains(t, err, "applying sqlite schema")
}

func TestDialect_Bind(t *testing.T) {
	q := `UPDATE services SET name = ?, description = ? WHERE id = ?`
	assert.Equal(t, q, SQLite.bind(q))
	assert.Equal(t, `UPDATE services SET name = $1, description = $2 WHERE id = $3`, Postgres.bind(q))
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, tc := range []struct {
		backend string
		dsn     string
	}{
		{BackendMemory, ""},
		{BackendFile, filepath.Join(dir, "services.json")},
		{BackendSQLite, filepath.Join(dir, "zoodesk.db")},
	} {
		repo, closeFn, err := Open(ctx, tc.backend, tc.dsn, nil)
		require.NoError(t, err, tc.backend)
		require.NotNil(t, repo)
		require.NoError(t, closeFn())
	}

	_, closeFn, err := Open(ctx, "mongo", "", nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.NotNil(t, closeFn)
}
