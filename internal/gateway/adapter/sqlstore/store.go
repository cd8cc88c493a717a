package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"college/internal/domain"
	"college/internal/gateway"
)

// Supported values for the driver argument of Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the SQL-backed account directory. It serves role and admin
// lookups for the authentication gate, credentials for login, and the
// seeding operations used by collegectl.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to dsn with the named driver. For SQLite the dsn is a file
// path; for Postgres it is a connection URL.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if d.name == DriverSQLite {
		// One writer at a time; WAL keeps readers off the writer's back.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	return &Store{
		db:      db,
		dialect: d,
		logger:  logger.With("component", "sqlstore"),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate", "driver", s.dialect.name)
	return migrate(ctx, s.db, s.dialect)
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

// LookupRole resolves the role by which table references the user, checked
// student, then faculty, then admin.
func (s *Store) LookupRole(ctx context.Context, userID int64) (domain.Role, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "id", userID)

	var name string
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT CASE
			WHEN EXISTS (SELECT 1 FROM students WHERE user_id = ?) THEN 'student'
			WHEN EXISTS (SELECT 1 FROM faculty WHERE user_id = ?) THEN 'faculty'
			WHEN EXISTS (SELECT 1 FROM admins WHERE user_id = ?) THEN 'admin'
			ELSE '' END
		 FROM users WHERE id = ?`),
		userID, userID, userID, userID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoleUnknown, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.RoleUnknown, fmt.Errorf("lookup role: %w", err)
	}
	if name == "" {
		return domain.RoleUnknown, fmt.Errorf("user %d has no role: %w", userID, domain.ErrNotFound)
	}
	return domain.ParseRole(name)
}

// LookupAdminProfile loads the admin row for userID and its permission set.
func (s *Store) LookupAdminProfile(ctx context.Context, userID int64) (domain.AdminProfile, error) {
	s.logger.Debug("sql", "op", "select", "table", "admins", "user_id", userID)

	row := s.db.QueryRowContext(ctx, s.q(
		`SELECT user_id, admin_id, admin_type, access_level, department_access
		 FROM admins WHERE user_id = ?`), userID)
	profile, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AdminProfile{}, fmt.Errorf("admin %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.AdminProfile{}, err
	}

	if profile.Permissions, err = s.permissions(ctx, userID); err != nil {
		return domain.AdminProfile{}, err
	}
	return profile, nil
}

// ListAdmins returns every admin ordered by user id.
func (s *Store) ListAdmins(ctx context.Context) ([]domain.AdminProfile, error) {
	s.logger.Debug("sql", "op", "select", "table", "admins")

	return s.listAdmins(ctx, `SELECT user_id, admin_id, admin_type, access_level, department_access
		 FROM admins ORDER BY user_id`)
}

// ListAdminsForDepartment returns admins whose stored department access
// contains code or is the scope-all marker, ordered by user id.
func (s *Store) ListAdminsForDepartment(ctx context.Context, code string) ([]domain.AdminProfile, error) {
	s.logger.Debug("sql", "op", "select", "table", "admins", "department", code)

	return s.listAdmins(ctx, `SELECT user_id, admin_id, admin_type, access_level, department_access
		 FROM admins
		 WHERE department_access = ? OR `+s.dialect.containsExpr("department_access")+`
		 ORDER BY user_id`,
		domain.DepartmentScopeAll, code,
	)
}

func (s *Store) listAdmins(ctx context.Context, query string, args ...any) ([]domain.AdminProfile, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	var admins []domain.AdminProfile
	for rows.Next() {
		p, err := scanAdmin(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		admins = append(admins, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Permissions are loaded on the same connection, so the cursor must be
	// closed first when SQLite runs with a single connection.
	rows.Close()

	for i := range admins {
		if admins[i].Permissions, err = s.permissions(ctx, admins[i].UserID); err != nil {
			return nil, err
		}
	}
	return admins, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row scanner) (domain.AdminProfile, error) {
	var (
		p                 domain.AdminProfile
		adminType, access string
	)
	if err := row.Scan(&p.UserID, &p.AdminID, &adminType, &access, &p.DepartmentAccess); err != nil {
		return domain.AdminProfile{}, err
	}

	var err error
	if p.Type, err = domain.ParseAdminType(adminType); err != nil {
		return domain.AdminProfile{}, fmt.Errorf("admin %d: %w", p.UserID, err)
	}
	if p.AccessLevel, err = domain.ParseAccessLevel(access); err != nil {
		return domain.AdminProfile{}, fmt.Errorf("admin %d: %w", p.UserID, err)
	}
	return p, nil
}

func (s *Store) permissions(ctx context.Context, userID int64) (domain.PermissionSet, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT permission FROM admin_permissions WHERE admin_user_id = ?`), userID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return domain.NewPermissionSet(names...), rows.Err()
}

// FindCredentials looks an account up by email, case-insensitively.
func (s *Store) FindCredentials(ctx context.Context, email string) (gateway.Credentials, error) {
	var c gateway.Credentials
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, name, email, password_hash, active FROM users WHERE email = ?`),
		normalizeEmail(email),
	).Scan(&c.UserID, &c.Name, &c.Email, &c.PasswordHash, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.Credentials{}, fmt.Errorf("email %q: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return gateway.Credentials{}, fmt.Errorf("find credentials: %w", err)
	}
	return c, nil
}

// RecordLogin stamps the user's last successful login.
func (s *Store) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`),
		at.UTC(), s.now(), userID,
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return expectOneRow(res, userID)
}

// LastLogin returns the recorded last login, if any.
func (s *Store) LastLogin(ctx context.Context, userID int64) (time.Time, bool, error) {
	var at sql.NullTime
	err := s.db.QueryRowContext(ctx, s.q(`SELECT last_login FROM users WHERE id = ?`), userID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at.Time, at.Valid, nil
}

func expectOneRow(res sql.Result, userID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
