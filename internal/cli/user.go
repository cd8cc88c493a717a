package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	"college/internal/gateway/adapter/sqlstore"
)

func newUserCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts in the configured database",
	}
	cmd.AddCommand(newUserCreateCmd(g))
	return cmd
}

type userCreateOpts struct {
	email, name, password, role string
	number, department          string

	adminType, accessLevel, departments string
	permissions                         []string

	bcryptCost int
}

func newUserCreateCmd(g *globals) *cobra.Command {
	var o userCreateOpts

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a student, faculty or admin record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(o.role)
			if err != nil {
				return err
			}
			var profile domain.AdminProfile
			if role == domain.RoleAdmin {
				if profile, err = o.adminProfile(); err != nil {
					return err
				}
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(o.password), o.bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			st, err := sqlstore.Open(g.driver, g.dsn, g.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			id, err := st.CreateUser(ctx, sqlstore.NewUser{
				Name:         o.name,
				Email:        o.email,
				PasswordHash: string(hash),
				Active:       true,
			})
			if err != nil {
				return err
			}

			number := o.number
			if number == "" {
				number = strings.ToUpper(role.String()[:1]) + "-" + strconv.FormatInt(id, 10)
			}
			switch role {
			case domain.RoleStudent:
				err = st.CreateStudent(ctx, id, number, o.department)
			case domain.RoleFaculty:
				err = st.CreateFaculty(ctx, id, number, o.department)
			case domain.RoleAdmin:
				err = st.CreateAdmin(ctx, id, profile)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprint(out, "created")
			fmt.Fprintf(out, " %s id=%d email=%s\n", role, id, strings.ToLower(strings.TrimSpace(o.email)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.email, "email", "", "Login email")
	f.StringVar(&o.name, "name", "", "Display name")
	f.StringVar(&o.password, "password", "", "Initial password")
	f.StringVar(&o.role, "role", "", "student, faculty or admin")
	f.StringVar(&o.number, "number", "", "Student number or employee id (generated when empty)")
	f.StringVar(&o.department, "department", "", "Department code for students and faculty")
	f.StringVar(&o.adminType, "admin-type", "GENERAL", "Admin type: SUPER_ADMIN, ACADEMIC_ADMIN, IT_ADMIN, FINANCE_ADMIN, GENERAL")
	f.StringVar(&o.accessLevel, "access-level", "LIMITED", "Access level: SYSTEM, INSTITUTION, DEPARTMENT, LIMITED")
	f.StringVar(&o.departments, "departments", "", "Comma-separated department codes, or ALL")
	f.StringSliceVar(&o.permissions, "permission", nil, "Permission to grant (repeatable)")
	f.IntVar(&o.bcryptCost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost factor")
	f.MarkHidden("bcrypt-cost")
	for _, name := range []string{"email", "name", "password", "role"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (o userCreateOpts) adminProfile() (domain.AdminProfile, error) {
	adminType, err := domain.ParseAdminType(o.adminType)
	if err != nil {
		return domain.AdminProfile{}, err
	}
	level, err := domain.ParseAccessLevel(o.accessLevel)
	if err != nil {
		return domain.AdminProfile{}, err
	}

	perms := make([]string, 0, len(o.permissions))
	for _, p := range o.permissions {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			return domain.AdminProfile{}, errors.New("empty --permission value")
		}
		perms = append(perms, p)
	}

	return domain.AdminProfile{
		Type:             adminType,
		AccessLevel:      level,
		DepartmentAccess: strings.TrimSpace(o.departments),
		Permissions:      domain.NewPermissionSet(perms...),
	}, nil
}
