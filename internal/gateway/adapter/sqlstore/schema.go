package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// dialect holds what differs between the supported databases.
type dialect struct {
	name       string
	driverName string
	schema     []string
	// containsExpr is a boolean SQL expression true when col contains the
	// bound parameter as a plain substring.
	containsExpr func(col string) string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var sqliteDialect = dialect{
	name:       DriverSQLite,
	driverName: "sqlite",
	numbered:   false,
	containsExpr: func(col string) string {
		return "instr(" + col + ", ?) > 0"
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT 1,
			last_login    DATETIME,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        INTEGER NOT NULL UNIQUE REFERENCES users(id),
			student_number TEXT NOT NULL UNIQUE,
			department     TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS faculty (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL UNIQUE REFERENCES users(id),
			employee_id TEXT NOT NULL UNIQUE,
			department  TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id           INTEGER NOT NULL UNIQUE REFERENCES users(id),
			admin_id          TEXT NOT NULL UNIQUE,
			admin_type        TEXT NOT NULL,
			access_level      TEXT NOT NULL,
			department_access TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_permissions (
			admin_user_id INTEGER NOT NULL REFERENCES admins(user_id),
			permission    TEXT NOT NULL,
			PRIMARY KEY (admin_user_id, permission)
		)`,
	},
}

var postgresDialect = dialect{
	name:       DriverPostgres,
	driverName: "pgx",
	numbered:   true,
	containsExpr: func(col string) string {
		return "strpos(" + col + ", ?) > 0"
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			last_login    TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id             BIGSERIAL PRIMARY KEY,
			user_id        BIGINT NOT NULL UNIQUE REFERENCES users(id),
			student_number TEXT NOT NULL UNIQUE,
			department     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS faculty (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL UNIQUE REFERENCES users(id),
			employee_id TEXT NOT NULL UNIQUE,
			department  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			id                BIGSERIAL PRIMARY KEY,
			user_id           BIGINT NOT NULL UNIQUE REFERENCES users(id),
			admin_id          TEXT NOT NULL UNIQUE,
			admin_type        TEXT NOT NULL,
			access_level      TEXT NOT NULL,
			department_access TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_permissions (
			admin_user_id BIGINT NOT NULL REFERENCES admins(user_id),
			permission    TEXT NOT NULL,
			PRIMARY KEY (admin_user_id, permission)
		)`,
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unknown driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $n for numbered dialects. Queries in
// this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = fmt.Appendf(out, "%d", n)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d.name, err)
		}
	}
	return nil
}
