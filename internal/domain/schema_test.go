package domain

import (
	"errors"
	"testing"
)

func TestNewSchema(t *testing.T) {
	s, err := NewSchema("BlogPost",
		Field{Name: "id", Type: FieldInt, PrimaryKey: true, Generated: GeneratedAuto},
		Field{Name: "title", Unique: true},
		Field{Name: "body", Type: FieldText},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Table != "blog_post" {
		t.Errorf("expected table blog_post, got %s", s.Table)
	}
	if f, _ := s.Field("title"); f.Type != FieldString {
		t.Errorf("expected default type string, got %s", f.Type)
	}
	pk, ok := s.PrimaryKey()
	if !ok || pk.Name != "id" {
		t.Errorf("expected primary key id, got %v (%v)", pk.Name, ok)
	}
	names := s.FieldNames()
	if len(names) != 3 || names[0] != "id" || names[2] != "body" {
		t.Errorf("unexpected field names %v", names)
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{"missing model", Schema{Fields: []Field{{Name: "id"}}}},
		{"no fields", Schema{Model: "Empty"}},
		{"bad table", Schema{Model: "User", Table: "users; DROP TABLE x", Fields: []Field{{Name: "id"}}}},
		{"bad field", Schema{Model: "User", Fields: []Field{{Name: "name--"}}}},
		{"duplicate field", Schema{Model: "User", Fields: []Field{{Name: "id"}, {Name: "id"}}}},
		{"unknown type", Schema{Model: "User", Fields: []Field{{Name: "id", Type: "blob"}}}},
		{"two keys", Schema{Model: "User", Fields: []Field{{Name: "a", PrimaryKey: true}, {Name: "b", PrimaryKey: true}}}},
		{"auto on string", Schema{Model: "User", Fields: []Field{{Name: "id", PrimaryKey: true, Generated: GeneratedAuto}}}},
		{"auto without key", Schema{Model: "User", Fields: []Field{{Name: "id", Type: FieldInt, Generated: GeneratedAuto}}}},
		{"uuid on int", Schema{Model: "User", Fields: []Field{{Name: "id", Type: FieldInt, PrimaryKey: true, Generated: GeneratedUUID}}}},
		{"unknown generation", Schema{Model: "User", Fields: []Field{{Name: "id", PrimaryKey: true, Generated: "sequence"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if !errors.Is(err, ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}

	t.Run("fills table from model", func(t *testing.T) {
		s := Schema{Model: "UserAccount", Fields: []Field{{Name: "id"}}}
		if err := s.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Table != "user_account" {
			t.Errorf("expected user_account, got %s", s.Table)
		}
	})
}

func TestSchemaCheckAttributes(t *testing.T) {
	s, err := NewSchema("Tag", Field{Name: "name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.CheckAttributes(Attributes{"name": "go"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.CheckAttributes(Attributes{"colour": "red"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"blog_post", true},
		{"_private", true},
		{"Col2", true},
		{"2col", false},
		{"", false},
		{"a b", false},
		{"name\"", false},
		{"a;b", false},
	}

	for _, tt := range tests {
		if got := IsIdentifier(tt.input); got != tt.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLookupError(t *testing.T) {
	err := NewNotUniqueError("BlogPost", Attributes{"title": "Hi"}, 2)

	if !IsNotUnique(err) {
		t.Error("expected IsNotUnique to be true")
	}
	if IsNotFound(err) {
		t.Error("expected IsNotFound to be false")
	}
	want := "BlogPost: several instances have been found (2 rows) [title=Hi]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	nf := NewNotFoundError("Tag", nil)
	if nf.Error() != "Tag: nothing has been found" {
		t.Errorf("unexpected message %q", nf.Error())
	}
}
