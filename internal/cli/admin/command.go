package admin

import (
	"flag"
	"fmt"
	"os"

	"github.com/karowl/simportal/internal/config"
	"github.com/karowl/simportal/internal/database"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/domain/token"
	"github.com/karowl/simportal/internal/domain/user"
	"github.com/karowl/simportal/internal/migrations"
	"gorm.io/gorm"
)

// Command implements staff account administration. Staff accounts register
// through the API in pending state; approvals happen here.
type Command struct{}

func (c *Command) Name() string {
	return "admin"
}

func (c *Command) Description() string {
	return "Staff account administration (init-root, approve, reject, list-pending)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "init-root":
		return c.runInitRoot(args[1:])
	case "approve":
		return c.runSetStatus(args[1:], user.StatusApproved)
	case "reject":
		return c.runSetStatus(args[1:], user.StatusRejected)
	case "list-pending":
		return c.runListPending(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: simportal-cli admin <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  init-root     Create an approved administrator account\n")
	fmt.Fprintf(os.Stderr, "  approve       Approve a pending staff account\n")
	fmt.Fprintf(os.Stderr, "  reject        Reject a pending staff account\n")
	fmt.Fprintf(os.Stderr, "  list-pending  List staff accounts awaiting approval\n")
}

func (c *Command) connect(runMigrations bool) (*gorm.DB, error) {
	envConfig := config.LoadEnv()
	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if runMigrations {
		if err := migrations.RunMigrations(cfg); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

func (c *Command) runInitRoot(args []string) error {
	fs := flag.NewFlagSet("init-root", flag.ExitOnError)
	email := fs.String("email", "", "Administrator email")
	password := fs.String("password", "", "Administrator password")
	name := fs.String("name", "Administrator", "Display name")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}

	db, err := c.connect(true)
	if err != nil {
		return err
	}

	repo := user.NewRepository(db)

	if existing, err := repo.GetByEmail(*email); err == nil {
		if existing.Status == user.StatusApproved {
			fmt.Printf("Account %s already exists and is approved\n", *email)
			return nil
		}
		if err := repo.UpdateStatus(existing.ID.String(), user.StatusApproved); err != nil {
			return fmt.Errorf("failed to approve existing account: %w", err)
		}
		fmt.Printf("Approved existing account %s\n", *email)
		return nil
	}

	hashedPassword, err := user.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	root := &user.User{
		Email:       *email,
		DisplayName: *name,
		Password:    hashedPassword,
		Role:        token.RoleAdministrator,
		Status:      user.StatusApproved,
	}
	if err := repo.Create(root); err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Created administrator %s (%s)\n", *email, root.ID)
	return nil
}

func (c *Command) runSetStatus(args []string, status user.AccountStatus) error {
	fs := flag.NewFlagSet(string(status), flag.ExitOnError)
	email := fs.String("email", "", "Staff account email")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("email is required")
	}

	db, err := c.connect(false)
	if err != nil {
		return err
	}

	repo := user.NewRepository(db)

	account, err := repo.GetByEmail(*email)
	if err != nil {
		if database.IsNotFound(err) {
			return fmt.Errorf("no account with email %s", *email)
		}
		return err
	}

	if err := repo.UpdateStatus(account.ID.String(), status); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}

	// A rejected account loses any sessions it still holds
	if status == user.StatusRejected {
		if err := session.NewRepository(db).ExpireAllForUser(account.ID.String()); err != nil {
			return fmt.Errorf("failed to expire sessions: %w", err)
		}
	}

	fmt.Printf("Account %s is now %s\n", *email, status)
	return nil
}

func (c *Command) runListPending(args []string) error {
	fs := flag.NewFlagSet("list-pending", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := c.connect(false)
	if err != nil {
		return err
	}

	repo := user.NewRepository(db)

	pending, err := repo.ListByStatus(user.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending accounts: %w", err)
	}

	if len(pending) == 0 {
		fmt.Println("No accounts awaiting approval")
		return nil
	}

	for _, account := range pending {
		fmt.Printf("%-40s %-14s %-24s %s\n",
			account.Email, account.Role, account.DisplayName,
			account.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
