package inmem

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"college/internal/domain"
	"college/internal/gateway"
)

// Directory is an in-memory account store. It backs tests and local runs
// without a database and satisfies the same interfaces as the SQL store.
type Directory struct {
	mu       sync.RWMutex
	accounts map[int64]*account
	byEmail  map[string]int64
}

type account struct {
	creds     gateway.Credentials
	role      domain.Role
	admin     *domain.AdminProfile
	lastLogin time.Time
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		accounts: make(map[int64]*account),
		byEmail:  make(map[string]int64),
	}
}

// AddUser registers a student or faculty account. Emails are matched
// case-insensitively.
func (d *Directory) AddUser(creds gateway.Credentials, role domain.Role) {
	d.put(&account{creds: creds, role: role})
}

// AddAdmin registers an admin account with its profile.
func (d *Directory) AddAdmin(creds gateway.Credentials, profile domain.AdminProfile) {
	profile.UserID = creds.UserID
	d.put(&account{creds: creds, role: domain.RoleAdmin, admin: &profile})
}

func (d *Directory) put(a *account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[a.creds.UserID] = a
	d.byEmail[strings.ToLower(a.creds.Email)] = a.creds.UserID
}

// LookupRole returns the role registered for userID.
func (d *Directory) LookupRole(ctx context.Context, userID int64) (domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoleUnknown, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.accounts[userID]
	if !ok {
		return domain.RoleUnknown, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return a.role, nil
}

// LookupAdminProfile returns a copy of the admin profile for userID.
func (d *Directory) LookupAdminProfile(ctx context.Context, userID int64) (domain.AdminProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.AdminProfile{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.accounts[userID]
	if !ok || a.admin == nil {
		return domain.AdminProfile{}, fmt.Errorf("admin %d: %w", userID, domain.ErrNotFound)
	}
	return *a.admin, nil
}

// FindCredentials looks an account up by email.
func (d *Directory) FindCredentials(ctx context.Context, email string) (gateway.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return gateway.Credentials{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return gateway.Credentials{}, fmt.Errorf("email %q: %w", email, domain.ErrNotFound)
	}
	return d.accounts[id].creds, nil
}

// RecordLogin stores the time of the latest successful login.
func (d *Directory) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	a.lastLogin = at
	return nil
}

// LastLogin reports the recorded login time for userID.
func (d *Directory) LastLogin(userID int64) (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[userID]
	if !ok || a.lastLogin.IsZero() {
		return time.Time{}, false
	}
	return a.lastLogin, true
}

// ListAdminsForDepartment returns admins whose stored department access
// contains code or is the scope-all marker, ordered by user id.
func (d *Directory) ListAdminsForDepartment(ctx context.Context, code string) ([]domain.AdminProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.AdminProfile
	for _, a := range d.accounts {
		if a.admin == nil {
			continue
		}
		access := a.admin.DepartmentAccess
		if access == domain.DepartmentScopeAll || strings.Contains(access, code) {
			out = append(out, *a.admin)
		}
	}
	slices.SortFunc(out, func(x, y domain.AdminProfile) int { return cmp.Compare(x.UserID, y.UserID) })
	return out, nil
}

// ListAdmins returns every admin profile ordered by user id.
func (d *Directory) ListAdmins(ctx context.Context) ([]domain.AdminProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.AdminProfile
	for _, a := range d.accounts {
		if a.admin != nil {
			out = append(out, *a.admin)
		}
	}
	slices.SortFunc(out, func(x, y domain.AdminProfile) int { return cmp.Compare(x.UserID, y.UserID) })
	return out, nil
}

// RegisterStudent adds an active student account under the next free id.
// The student number and department are not kept.
func (d *Directory) RegisterStudent(ctx context.Context, reg gateway.Registration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, taken := d.byEmail[email]; taken {
		return 0, fmt.Errorf("email %q: %w", email, domain.ErrAlreadyExists)
	}

	var id int64
	for existing := range d.accounts {
		id = max(id, existing)
	}
	id++

	d.accounts[id] = &account{
		creds: gateway.Credentials{
			UserID:       id,
			Name:         reg.Name,
			Email:        email,
			PasswordHash: reg.PasswordHash,
			Active:       true,
		},
		role: domain.RoleStudent,
	}
	d.byEmail[email] = id
	return id, nil
}

// Ping always succeeds.
func (d *Directory) Ping(context.Context) error { return nil }
