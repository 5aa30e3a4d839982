package database

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"zmodels/internal/domain"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Dialect captures the per-database differences the repository cares about
type Dialect struct {
	// Name is the configured driver name: sqlite, mysql or postgres
	Name string
	// DriverName is the database/sql driver registered for Name
	DriverName string
	// Placeholder is the squirrel placeholder format for built statements
	Placeholder sq.PlaceholderFormat

	quote        string
	lastIDQuery  string
	columnTypes  map[domain.FieldType]string
	autoIncrPK   string
	indexedTypes map[domain.FieldType]string
}

var dialects = map[string]Dialect{
	"sqlite": {
		Name:        "sqlite",
		DriverName:  "sqlite",
		Placeholder: sq.Question,
		quote:       `"`,
		lastIDQuery: "SELECT last_insert_rowid() AS id",
		columnTypes: map[domain.FieldType]string{
			domain.FieldString: "TEXT",
			domain.FieldText:   "TEXT",
			domain.FieldInt:    "INTEGER",
			domain.FieldFloat:  "REAL",
			domain.FieldBool:   "BOOLEAN",
			domain.FieldTime:   "DATETIME",
			domain.FieldUUID:   "TEXT",
		},
		autoIncrPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
	},
	"mysql": {
		Name:        "mysql",
		DriverName:  "mysql",
		Placeholder: sq.Question,
		quote:       "`",
		lastIDQuery: "SELECT LAST_INSERT_ID() AS id",
		columnTypes: map[domain.FieldType]string{
			domain.FieldString: "VARCHAR(255)",
			domain.FieldText:   "TEXT",
			domain.FieldInt:    "BIGINT",
			domain.FieldFloat:  "DOUBLE",
			domain.FieldBool:   "BOOLEAN",
			domain.FieldTime:   "DATETIME(6)",
			domain.FieldUUID:   "CHAR(36)",
		},
		autoIncrPK: "BIGINT AUTO_INCREMENT PRIMARY KEY",
		// MySQL cannot index TEXT without a prefix length
		indexedTypes: map[domain.FieldType]string{
			domain.FieldText: "VARCHAR(255)",
		},
	},
	"postgres": {
		Name:        "postgres",
		DriverName:  "pgx",
		Placeholder: sq.Dollar,
		quote:       `"`,
		lastIDQuery: "SELECT lastval() AS id",
		columnTypes: map[domain.FieldType]string{
			domain.FieldString: "VARCHAR(255)",
			domain.FieldText:   "TEXT",
			domain.FieldInt:    "BIGINT",
			domain.FieldFloat:  "DOUBLE PRECISION",
			domain.FieldBool:   "BOOLEAN",
			domain.FieldTime:   "TIMESTAMPTZ",
			domain.FieldUUID:   "UUID",
		},
		autoIncrPK: "BIGSERIAL PRIMARY KEY",
	},
}

// DialectFor returns the dialect for a configured driver name
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q (supported: %s)", driver, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// Drivers lists the supported driver names
func Drivers() []string {
	return []string{"sqlite", "mysql", "postgres"}
}

// Quote quotes an identifier. Identifiers are validated by the schema,
// so no escaping is done here.
func (d Dialect) Quote(ident string) string {
	return d.quote + ident + d.quote
}

// LastInsertIDQuery returns the session-scoped last-insert-id query
func (d Dialect) LastInsertIDQuery() string {
	return d.lastIDQuery
}

// EmptyInsertSQL inserts a row made only of defaults
func (d Dialect) EmptyInsertSQL(table string) string {
	if d.Name == "mysql" {
		return "INSERT INTO " + d.Quote(table) + " () VALUES ()"
	}
	return "INSERT INTO " + d.Quote(table) + " DEFAULT VALUES"
}

// ColumnType returns the SQL column type for a field
func (d Dialect) ColumnType(f domain.Field) string {
	t := f.Type
	if t == "" {
		t = domain.FieldString
	}
	if f.PrimaryKey || f.Unique {
		if indexed, ok := d.indexedTypes[t]; ok {
			return indexed
		}
	}
	return d.columnTypes[t]
}

// ColumnDef returns the full column definition used in CREATE TABLE
func (d Dialect) ColumnDef(f domain.Field) string {
	if f.PrimaryKey && f.Generated == domain.GeneratedAuto {
		return d.Quote(f.Name) + " " + d.autoIncrPK
	}

	var b strings.Builder
	b.WriteString(d.Quote(f.Name))
	b.WriteString(" ")
	b.WriteString(d.ColumnType(f))
	switch {
	case f.PrimaryKey:
		b.WriteString(" PRIMARY KEY")
	case f.Required:
		b.WriteString(" NOT NULL")
	}
	if f.Unique && !f.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// CreateTableSQL renders an idempotent CREATE TABLE statement for a schema
func (d Dialect) CreateTableSQL(s *domain.Schema) string {
	defs := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		defs = append(defs, d.ColumnDef(f))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		d.Quote(s.Table), strings.Join(defs, ",\n\t"))
}

// PrepareDSN adjusts a configured DSN for what the repository expects
// from the driver.
func (d Dialect) PrepareDSN(dsn string) (string, error) {
	switch d.Name {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		// Affected rows must count matched rows, or an UPDATE that changes
		// nothing would look like a missing row to Save.
		cfg.ClientFoundRows = true
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case "sqlite":
		if IsMemoryDSN(dsn) || strings.Contains(dsn, "_pragma") {
			return dsn, nil
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	}
	return dsn, nil
}

// IsMemoryDSN reports whether a sqlite DSN names an in-memory database
func IsMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}
