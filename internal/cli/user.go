package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/database/repositories"
	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"

	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local dashboard users",
		Long:  "Manage users for local authentication mode (auth.mode: local).",
	}
	cmd.AddCommand(newUserCreateCommand(opts))
	cmd.AddCommand(newUserListCommand(opts))
	cmd.AddCommand(newUserPasswdCommand(opts))
	cmd.AddCommand(newUserActiveCommand(opts, "disable", false))
	cmd.AddCommand(newUserActiveCommand(opts, "enable", true))
	return cmd
}

// withUsers loads config, opens the database and hands fn the users repository.
func withUsers(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, repo *repositories.UserRepository, cfg *config.Config, log *logger.Logger) error) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	defer log.Close()

	db, err := openDatabase(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cmd.Context(), repositories.NewUserRepository(db), cfg, log)
}

func readPassword(cmd *cobra.Command, password string) (string, error) {
	if password != "-" {
		return password, nil
	}
	b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1024))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

type userCreateOptions struct {
	email    string
	password string
	name     string
	phone    string
	role     string
}

func newUserCreateCommand(opts *rootOptions) *cobra.Command {
	u := &userCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a local user",
		Example: `  quickfuel-admin user create --email admin@quickfuel.test --password 'change-me' --role admin
  echo 'change-me' | quickfuel-admin user create --email ops@quickfuel.test --password -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, u.password)
			if err != nil {
				return err
			}
			u.password = password

			return withUsers(cmd, opts, func(ctx context.Context, repo *repositories.UserRepository, cfg *config.Config, log *logger.Logger) error {
				user, err := createUser(ctx, repo, cfg.Security, u)
				if err != nil {
					return err
				}
				log.AuditLogger("user_create", fmt.Sprint(user.ID), "users", "role="+user.Role)
				cmd.Printf("Created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&u.email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&u.password, "password", "", "Password, or - to read it from stdin (required)")
	cmd.Flags().StringVar(&u.name, "name", "", "Display name")
	cmd.Flags().StringVar(&u.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&u.role, "role", auth.RoleUser, "Role: admin or user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type userCreator interface {
	Create(ctx context.Context, user *database.User) error
}

func createUser(ctx context.Context, repo userCreator, sec config.SecurityConfig, u *userCreateOptions) (*database.User, error) {
	email := strings.TrimSpace(u.email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address: %q", u.email)
	}
	if minLen := sec.PasswordMinLength; minLen > 0 && len(u.password) < minLen {
		return nil, fmt.Errorf("password must be at least %d characters", minLen)
	}
	role := strings.ToLower(strings.TrimSpace(u.role))
	if role != auth.RoleAdmin && role != auth.RoleUser {
		return nil, fmt.Errorf("unknown role %q: must be %s or %s", u.role, auth.RoleAdmin, auth.RoleUser)
	}

	hash, err := auth.HashPassword(u.password, sec.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(u.name),
		Phone:        strings.TrimSpace(u.phone),
		Role:         role,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func newUserListCommand(opts *rootOptions) *cobra.Command {
	var (
		role   string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, opts, func(ctx context.Context, repo *repositories.UserRepository, _ *config.Config, _ *logger.Logger) error {
				users, err := repo.ListUsers(ctx, role, limit, offset)
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Only list users with this role")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of users to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of users to skip")
	return cmd
}

func printUsers(w io.Writer, users []database.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Email, u.Name, u.Role, u.IsActive, lastLogin)
	}
	return tw.Flush()
}

func newUserPasswdCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set a local user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			return withUsers(cmd, opts, func(ctx context.Context, repo *repositories.UserRepository, cfg *config.Config, log *logger.Logger) error {
				user, err := setPassword(ctx, repo, cfg.Security, email, pw)
				if err != nil {
					return err
				}
				log.AuditLogger("user_password", fmt.Sprint(user.ID), "users", "password changed")
				cmd.Printf("Password updated for %s\n", user.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address of an active user (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password, or - to read it from stdin (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type passwordSetter interface {
	GetByEmail(ctx context.Context, email string) (*database.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

func setPassword(ctx context.Context, repo passwordSetter, sec config.SecurityConfig, email, password string) (*database.User, error) {
	if minLen := sec.PasswordMinLength; minLen > 0 && len(password) < minLen {
		return nil, fmt.Errorf("password must be at least %d characters", minLen)
	}
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", email, err)
	}
	hash, err := auth.HashPassword(password, sec.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	return user, nil
}

func newUserActiveCommand(opts *rootOptions, use string, active bool) *cobra.Command {
	short := "Disable a local user so they can no longer sign in"
	if active {
		short = "Re-enable a disabled local user"
	}

	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			return withUsers(cmd, opts, func(ctx context.Context, repo *repositories.UserRepository, _ *config.Config, log *logger.Logger) error {
				user, err := setActive(ctx, repo, id, active)
				if err != nil {
					return err
				}
				log.AuditLogger("user_"+use, args[0], "users", user.Email)
				cmd.Printf("User %d (%s) active=%t\n", user.ID, user.Email, user.IsActive)
				return nil
			})
		},
	}
}

type activeSetter interface {
	GetByID(ctx context.Context, userID int64) (*database.User, error)
	SetActive(ctx context.Context, userID int64, active bool) error
}

func setActive(ctx context.Context, repo activeSetter, id int64, active bool) (*database.User, error) {
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	if err := repo.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsActive = active
	return user, nil
}
