package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
)

var errUsage = errors.New("usage")

const usageText = `helpdeskctl: operator tasks for the help desk.

Usage:
  helpdeskctl user create --username NAME --password PASS [--email E] [--first-name F] [--last-name L] [--group G]...
  helpdeskctl user delete --username NAME
  helpdeskctl user add-group --username NAME --group G
  helpdeskctl ticket delete --id ID
  helpdeskctl migrate [up|down] [--steps N]
  helpdeskctl bootstrap [--file groups.yaml]
`

// commandEnv carries the collaborators a command may open. Stores are opened lazily
// so migrate can run against an empty database.
type commandEnv struct {
	out     io.Writer
	logger  *zap.Logger
	dsn     string
	store   func(ctx context.Context) (repository.Store, error)
	objects func(ctx context.Context) (storage.ObjectStore, error)
	// bcryptCost zero means bcrypt's default.
	bcryptCost int
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func run(ctx context.Context, env *commandEnv, args []string) error {
	err := dispatch(ctx, env, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func dispatch(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(env.out, usageText)
		if len(args) == 0 {
			return usageError("missing command")
		}
		return nil
	}
	switch args[0] {
	case "user":
		if len(args) < 2 {
			return usageError("user requires create, delete or add-group")
		}
		switch args[1] {
		case "create":
			return userCreate(ctx, env, args[2:])
		case "delete":
			return userDelete(ctx, env, args[2:])
		case "add-group":
			return userAddGroup(ctx, env, args[2:])
		}
		return usageError("unknown user command %q", args[1])
	case "ticket":
		if len(args) < 2 || args[1] != "delete" {
			return usageError("ticket requires delete")
		}
		return ticketDelete(ctx, env, args[2:])
	case "migrate":
		return migrateCmd(env, args[1:])
	case "bootstrap":
		return bootstrapCmd(ctx, env, args[1:])
	}
	return usageError("unknown command %q", args[0])
}

func newFlagSet(name string, env *commandEnv) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(env.out)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError("%v", err)
	}
	if fs.NArg() > 0 {
		return usageError("unexpected argument %q", fs.Arg(0))
	}
	return nil
}

func adminService(ctx context.Context, env *commandEnv, withObjects bool) (*service.AdminService, error) {
	store, err := env.store(ctx)
	if err != nil {
		return nil, err
	}
	var objects storage.ObjectStore
	if withObjects {
		if objects, err = env.objects(ctx); err != nil {
			return nil, err
		}
	}
	return service.NewAdminService(store, objects, env.bcryptCost, env.logger), nil
}

func userCreate(ctx context.Context, env *commandEnv, args []string) error {
	var input service.CreateUserInput
	fs := newFlagSet("user create", env)
	fs.StringVar(&input.Username, "username", "", "login name")
	fs.StringVar(&input.Password, "password", "", "initial password")
	fs.StringVar(&input.Email, "email", "", "address that receives follow-up notifications")
	fs.StringVar(&input.FirstName, "first-name", "", "first name")
	fs.StringVar(&input.LastName, "last-name", "", "last name")
	fs.StringSliceVar(&input.Groups, "group", nil, "group to join (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	admin, err := adminService(ctx, env, false)
	if err != nil {
		return err
	}
	user, err := admin.CreateUser(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func userDelete(ctx context.Context, env *commandEnv, args []string) error {
	var username string
	fs := newFlagSet("user delete", env)
	fs.StringVar(&username, "username", "", "login name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if username == "" {
		return usageError("--username is required")
	}

	admin, err := adminService(ctx, env, false)
	if err != nil {
		return err
	}
	if err := admin.DeleteUser(ctx, username); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "deleted user %s\n", username)
	return nil
}

func userAddGroup(ctx context.Context, env *commandEnv, args []string) error {
	var username, group string
	fs := newFlagSet("user add-group", env)
	fs.StringVar(&username, "username", "", "login name")
	fs.StringVar(&group, "group", "", "group name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if username == "" || group == "" {
		return usageError("--username and --group are required")
	}

	admin, err := adminService(ctx, env, false)
	if err != nil {
		return err
	}
	if err := admin.AddUserToGroup(ctx, username, group); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "added %s to %s\n", username, group)
	return nil
}

func ticketDelete(ctx context.Context, env *commandEnv, args []string) error {
	var rawID string
	fs := newFlagSet("ticket delete", env)
	fs.StringVar(&rawID, "id", "", "ticket id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return usageError("--id must be a ticket id")
	}

	admin, err := adminService(ctx, env, true)
	if err != nil {
		return err
	}
	removed, err := admin.DeleteTicket(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "deleted ticket %d (%d files removed)\n", id, removed)
	return nil
}

func migrateCmd(env *commandEnv, args []string) error {
	direction := "up"
	if len(args) > 0 && (args[0] == "up" || args[0] == "down") {
		direction, args = args[0], args[1:]
	}
	var steps int
	fs := newFlagSet("migrate", env)
	fs.IntVar(&steps, "steps", 1, "migrations to roll back (down only)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if env.dsn == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	if direction == "down" {
		if steps <= 0 {
			return usageError("--steps must be positive")
		}
		return persistence.RollbackMigrations(env.dsn, steps, env.logger)
	}
	return persistence.RunMigrations(env.dsn, env.logger)
}

func bootstrapCmd(ctx context.Context, env *commandEnv, args []string) error {
	var file string
	fs := newFlagSet("bootstrap", env)
	fs.StringVar(&file, "file", "", "YAML group definitions (default: Admin, Call Center, Users)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	definitions := service.DefaultGroupDefinitions()
	if file != "" {
		loaded, err := service.LoadGroupDefinitions(file)
		if err != nil {
			return err
		}
		definitions = loaded
	}
	store, err := env.store(ctx)
	if err != nil {
		return err
	}
	groups, err := service.NewAccessService(store, env.logger).Bootstrap(ctx, definitions, domain.EntityPermissions())
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Fprintf(env.out, "%s: %d permissions\n", g.Name, len(g.Permissions))
	}
	return nil
}
