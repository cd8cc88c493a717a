package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"college/internal/domain"
	"college/internal/gateway"
)

// NewUser is the account row created before any role record.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Active       bool
}

// CreateUser inserts an account and returns its id.
func (s *Store) CreateUser(ctx context.Context, u NewUser) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "users")

	now := s.now()
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(
		`INSERT INTO users (name, email, password_hash, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		u.Name, normalizeEmail(u.Email), u.PasswordHash, u.Active, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// RegisterStudent creates a user and its student record in one transaction.
// A taken email is domain.ErrAlreadyExists; an empty student number becomes
// "STU-<id>".
func (s *Store) RegisterStudent(ctx context.Context, reg gateway.Registration) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "users", "role", "student")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	email := normalizeEmail(reg.Email)
	var taken bool
	if err := tx.QueryRowContext(ctx, s.q(
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`), email,
	).Scan(&taken); err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return 0, fmt.Errorf("email %q: %w", email, domain.ErrAlreadyExists)
	}

	now := s.now()
	var id int64
	if err := tx.QueryRowContext(ctx, s.q(
		`INSERT INTO users (name, email, password_hash, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		reg.Name, email, reg.PasswordHash, true, now, now,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	number := reg.StudentNumber
	if number == "" {
		number = "STU-" + strconv.FormatInt(id, 10)
	}
	if _, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO students (user_id, student_number, department, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`),
		id, number, reg.Department, now, now,
	); err != nil {
		return 0, fmt.Errorf("create student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// CreateStudent attaches a student record to an existing user.
func (s *Store) CreateStudent(ctx context.Context, userID int64, studentNumber, department string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO students (user_id, student_number, department, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`),
		userID, studentNumber, department, now, now,
	)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateFaculty attaches a faculty record to an existing user.
func (s *Store) CreateFaculty(ctx context.Context, userID int64, employeeID, department string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO faculty (user_id, employee_id, department, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`),
		userID, employeeID, department, now, now,
	)
	if err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// CreateAdmin attaches an admin record and its permissions to an existing
// user in one transaction. An empty AdminID becomes "ADM-<userID>".
func (s *Store) CreateAdmin(ctx context.Context, userID int64, p domain.AdminProfile) error {
	adminID := p.AdminID
	if adminID == "" {
		adminID = "ADM-" + strconv.FormatInt(userID, 10)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	if _, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO admins (user_id, admin_id, admin_type, access_level, department_access, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		userID, adminID, p.Type.String(), p.AccessLevel.String(), p.DepartmentAccess, now, now,
	); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if err := s.grant(ctx, tx, userID, p.Permissions.Names()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) grant(ctx context.Context, tx *sql.Tx, userID int64, names []string) error {
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO admin_permissions (admin_user_id, permission) VALUES (?, ?)`),
			userID, name,
		); err != nil {
			return fmt.Errorf("grant %s: %w", name, err)
		}
	}
	return nil
}
