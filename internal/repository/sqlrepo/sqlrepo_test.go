package sqlrepo

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zmodels/internal/config"
	"zmodels/internal/database"
	"zmodels/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func blogPostSchema(t *testing.T) *domain.Schema {
	t.Helper()
	schema, err := domain.NewSchema("BlogPost",
		domain.Field{Name: "id", Type: domain.FieldInt, PrimaryKey: true, Generated: domain.GeneratedAuto},
		domain.Field{Name: "title", Type: domain.FieldString, Required: true},
		domain.Field{Name: "body", Type: domain.FieldText},
	)
	require.NoError(t, err)
	return schema
}

func newTestRepo(t *testing.T, db *database.DB, schema *domain.Schema) *Repository {
	t.Helper()
	repo, err := New(context.Background(), db, schema)
	require.NoError(t, err)
	return repo
}

func newBlogRepo(t *testing.T) *Repository {
	t.Helper()
	return newTestRepo(t, newTestDB(t), blogPostSchema(t))
}

// ============================================================================
// Repository Tests
// ============================================================================

func TestBlogPostScenario(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	assert.Equal(t, "blog_post", repo.Table())

	created, err := repo.Create(ctx, domain.Attributes{"title": "Hi", "body": "World"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Value("id"))
	assert.Equal(t, "Hi", created.Value("title"))
	assert.Equal(t, "World", created.Value("body"))

	got, err := repo.Get(ctx, domain.Attributes{"title": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "BlogPost", got.Name())
	assert.Equal(t, "Hi", got.Value("title"))
	assert.Equal(t, "World", got.Value("body"))
	assert.Equal(t, []string{"id", "title", "body"}, got.Fields())
	assert.Equal(t, "BlogPost(id=1, title=Hi, body=World)", got.String())
}

func TestCreateKeepsSchemaOrder(t *testing.T) {
	repo := newBlogRepo(t)

	created, err := repo.Create(context.Background(), domain.Attributes{"body": "b", "title": "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "body"}, created.Fields())
	assert.Equal(t, domain.Attributes{"id": int64(1), "title": "t", "body": "b"}, created.Attributes())
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	for _, attrs := range []domain.Attributes{
		{"title": "a", "body": "x"},
		{"title": "b", "body": "x"},
		{"title": "c", "body": "y"},
	} {
		_, err := repo.Create(ctx, attrs)
		require.NoError(t, err)
	}

	t.Run("no terms returns all rows", func(t *testing.T) {
		models, err := repo.Filter(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, models, 3)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, models, all)
	})

	t.Run("nil terms are ignored", func(t *testing.T) {
		var missing *string
		models, err := repo.Filter(ctx, domain.Attributes{"title": nil, "body": missing})
		require.NoError(t, err)
		assert.Len(t, models, 3)
	})

	t.Run("terms are joined with AND", func(t *testing.T) {
		models, err := repo.Filter(ctx, domain.Attributes{"body": "x"})
		require.NoError(t, err)
		assert.Len(t, models, 2)

		models, err = repo.Filter(ctx, domain.Attributes{"body": "x", "title": "b"})
		require.NoError(t, err)
		require.Len(t, models, 1)
		assert.Equal(t, "b", models[0].Value("title"))
	})

	t.Run("no match returns empty slice", func(t *testing.T) {
		models, err := repo.Filter(ctx, domain.Attributes{"title": "zzz"})
		require.NoError(t, err)
		assert.NotNil(t, models)
		assert.Empty(t, models)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := repo.Filter(ctx, domain.Attributes{"author": "me"})
		assert.ErrorIs(t, err, domain.ErrUnknownField)
	})

	t.Run("values are bound, not interpolated", func(t *testing.T) {
		models, err := repo.Filter(ctx, domain.Attributes{"title": "a' OR '1'='1"})
		require.NoError(t, err)
		assert.Empty(t, models)
	})
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	_, err := repo.Get(ctx, domain.Attributes{"title": "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsNotFound(err))

	_, err = repo.Create(ctx, domain.Attributes{"title": "dup"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, domain.Attributes{"title": "dup"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, domain.Attributes{"title": "dup"})
	assert.ErrorIs(t, err, domain.ErrNotUnique)

	var lookupErr *domain.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "BlogPost", lookupErr.Model)
	assert.Equal(t, 2, lookupErr.Count)
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	first, created, err := repo.GetOrCreate(ctx, domain.Attributes{"title": "Hi"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Hi", first.Value("title"))

	second, created, err := repo.GetOrCreate(ctx, domain.Attributes{"title": "Hi"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Value("id"), second.Value("id"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetOrCreatePropagatesNotUnique(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	for i := 0; i < 2; i++ {
		_, err := repo.Create(ctx, domain.Attributes{"title": "dup"})
		require.NoError(t, err)
	}

	_, _, err := repo.GetOrCreate(ctx, domain.Attributes{"title": "dup"})
	assert.ErrorIs(t, err, domain.ErrNotUnique)
}

func TestSaveUpdatesExistingRow(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	m, err := repo.Create(ctx, domain.Attributes{"title": "draft", "body": "v1"})
	require.NoError(t, err)

	m.Set("body", "v2")
	saved, err := repo.Save(ctx, m)
	require.NoError(t, err)
	assert.Same(t, m, saved)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "v2", all[0].Value("body"))

	// Saving unchanged values still counts as an update
	_, err = repo.Save(ctx, all[0])
	require.NoError(t, err)
	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveInsertsUnknownKey(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	m := domain.NewModel("BlogPost", domain.Attributes{"id": int64(42), "title": "explicit"}, "id", "title")
	_, err := repo.Save(ctx, m)
	require.NoError(t, err)

	got, err := repo.Get(ctx, domain.Attributes{"id": 42})
	require.NoError(t, err)
	assert.Equal(t, "explicit", got.Value("title"))
}

func TestSaveRejectsOtherModel(t *testing.T) {
	repo := newBlogRepo(t)

	_, err := repo.Save(context.Background(), domain.NewModel("Comment", domain.Attributes{"title": "x"}))
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestModelSaveThroughRepository(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	m := domain.NewModel("BlogPost", domain.Attributes{"title": "via model"})
	saved, err := m.Save(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Value("id"))

	_, err = repo.Get(ctx, domain.Attributes{"title": "via model"})
	assert.NoError(t, err)
}

func TestModelSaveUnboundRepository(t *testing.T) {
	var repo *Repository

	m := domain.NewModel("BlogPost", domain.Attributes{"title": "orphan"})
	_, err := m.Save(context.Background(), repo)
	assert.ErrorIs(t, err, domain.ErrNoRepository)
}

func TestSaveRowFromWiderTable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	wide, err := domain.NewSchema("BlogPost",
		domain.Field{Name: "id", Type: domain.FieldInt, PrimaryKey: true, Generated: domain.GeneratedAuto},
		domain.Field{Name: "title", Type: domain.FieldString, Required: true},
		domain.Field{Name: "body", Type: domain.FieldText},
		domain.Field{Name: "legacy", Type: domain.FieldString},
	)
	require.NoError(t, err)
	wideRepo := newTestRepo(t, db, wide)

	_, err = wideRepo.Create(ctx, domain.Attributes{"title": "a", "legacy": "z"})
	require.NoError(t, err)

	// Same table, schema without the legacy column
	repo := newTestRepo(t, db, blogPostSchema(t))

	m, err := repo.Get(ctx, domain.Attributes{"title": "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "body"}, m.Fields())

	m.Set("body", "edited")
	_, err = repo.Save(ctx, m)
	require.NoError(t, err)

	stored, err := wideRepo.Get(ctx, domain.Attributes{"id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Value("body"))
	assert.Equal(t, "z", stored.Value("legacy"))
}

func TestLastID(t *testing.T) {
	ctx := context.Background()
	repo := newBlogRepo(t)

	for _, title := range []string{"one", "two"} {
		m, err := repo.Create(ctx, domain.Attributes{"title": title})
		require.NoError(t, err)

		id, err := repo.LastID(ctx)
		require.NoError(t, err)
		assert.Equal(t, m.Value("id"), id)
	}
}

func TestUUIDKeys(t *testing.T) {
	ctx := context.Background()
	schema, err := domain.NewSchema("Tag",
		domain.Field{Name: "id", Type: domain.FieldUUID, PrimaryKey: true, Generated: domain.GeneratedUUID},
		domain.Field{Name: "name", Type: domain.FieldString, Unique: true, Required: true},
	)
	require.NoError(t, err)
	repo := newTestRepo(t, newTestDB(t), schema)

	m, err := repo.Create(ctx, domain.Attributes{"name": "go"})
	require.NoError(t, err)

	id, ok := m.Value("id").(string)
	require.True(t, ok, "id should be a string, got %T", m.Value("id"))
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	got, err := repo.Get(ctx, domain.Attributes{"id": id})
	require.NoError(t, err)
	assert.Equal(t, "go", got.Value("name"))

	// The unique constraint rejects a second row with the same name
	_, err = repo.Create(ctx, domain.Attributes{"name": "go"})
	assert.Error(t, err)
}

func TestTypedColumns(t *testing.T) {
	ctx := context.Background()
	schema, err := domain.NewSchema("Reading",
		domain.Field{Name: "id", Type: domain.FieldInt, PrimaryKey: true, Generated: domain.GeneratedAuto},
		domain.Field{Name: "value", Type: domain.FieldFloat},
		domain.Field{Name: "valid", Type: domain.FieldBool},
		domain.Field{Name: "taken_at", Type: domain.FieldTime},
	)
	require.NoError(t, err)
	repo := newTestRepo(t, newTestDB(t), schema)

	takenAt := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	_, err = repo.Create(ctx, domain.Attributes{"value": 21.5, "valid": true, "taken_at": takenAt})
	require.NoError(t, err)

	got, err := repo.Get(ctx, domain.Attributes{"valid": true})
	require.NoError(t, err)
	assert.Equal(t, 21.5, got.Value("value"))
	assert.Equal(t, true, got.Value("valid"))

	ts, ok := got.Value("taken_at").(time.Time)
	require.True(t, ok, "taken_at should be a time.Time, got %T", got.Value("taken_at"))
	assert.True(t, takenAt.Equal(ts))
}

func TestSchemaWithoutPrimaryKey(t *testing.T) {
	ctx := context.Background()
	schema, err := domain.NewSchema("AuditEvent",
		domain.Field{Name: "action", Type: domain.FieldString},
		domain.Field{Name: "count", Type: domain.FieldInt},
	)
	require.NoError(t, err)
	repo := newTestRepo(t, newTestDB(t), schema)
	assert.Equal(t, "audit_event", repo.Table())

	_, err = repo.Create(ctx, domain.Attributes{"action": "login", "count": 3})
	require.NoError(t, err)

	got, err := repo.Get(ctx, domain.Attributes{"action": "login"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Value("count"))
}

func TestCreateWithOnlyGeneratedKey(t *testing.T) {
	schema, err := domain.NewSchema("Counter",
		domain.Field{Name: "id", Type: domain.FieldInt, PrimaryKey: true, Generated: domain.GeneratedAuto},
	)
	require.NoError(t, err)
	repo := newTestRepo(t, newTestDB(t), schema)

	m, err := repo.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Value("id"))
}

func TestCreateTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	schema := blogPostSchema(t)

	repo := newTestRepo(t, db, schema)
	_, err := repo.Create(ctx, domain.Attributes{"title": "kept"})
	require.NoError(t, err)

	// A second repository over the same table keeps existing rows
	again := newTestRepo(t, db, schema)
	require.NoError(t, again.CreateTable(ctx))

	all, err := again.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewRejectsInvalidSchema(t *testing.T) {
	db := newTestDB(t)

	_, err := New(context.Background(), db, &domain.Schema{Model: "Bad", Fields: []domain.Field{{Name: "drop table"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)

	_, err = New(context.Background(), db, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

// ============================================================================
// Helper Function Tests
// ============================================================================

type nullValuer struct{ valid bool }

func (v nullValuer) Value() (driver.Value, error) {
	if !v.valid {
		return nil, nil
	}
	return "set", nil
}

func TestIsNull(t *testing.T) {
	var nilPtr *int
	one := 1

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"nil pointer", nilPtr, true},
		{"nil slice", []byte(nil), true},
		{"null valuer", nullValuer{}, true},
		{"set valuer", nullValuer{valid: true}, false},
		{"zero int", 0, false},
		{"empty string", "", false},
		{"pointer", &one, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNull(tt.value))
		})
	}
}

func TestNormalize(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name  string
		typ   domain.FieldType
		value any
		want  any
	}{
		{"nil", domain.FieldInt, nil, nil},
		{"int from bytes", domain.FieldInt, []byte("42"), int64(42)},
		{"int from whole float", domain.FieldInt, float64(7), int64(7)},
		{"float from int", domain.FieldFloat, int64(2), float64(2)},
		{"float from bytes", domain.FieldFloat, []byte("1.5"), 1.5},
		{"bool from int", domain.FieldBool, int64(0), false},
		{"bool from bytes", domain.FieldBool, []byte("1"), true},
		{"string from bytes", domain.FieldString, []byte("hi"), "hi"},
		{"uuid from array", domain.FieldUUID, [16]byte(id), id.String()},
		{"time from text", domain.FieldTime, "2024-03-01 12:30:00", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"unparseable kept", domain.FieldInt, "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.typ, tt.value))
		})
	}
}
