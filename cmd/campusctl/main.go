package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/seed"
	"github.com/noah-isme/campus-api/pkg/config"
	"github.com/noah-isme/campus-api/pkg/database"
	"github.com/noah-isme/campus-api/pkg/database/migrate"
	"github.com/noah-isme/campus-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "campusctl",
	Short: "Operator CLI for the campus API",
	Long: `campusctl runs schema migrations, seeds users and classes from YAML and
inspects users and complaints directly in PostgreSQL. Connection settings come
from the same environment as the API server; flags override them.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CAMPUSCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.String("db-host", "", "postgres host (overrides DB_HOST)")
	flags.Int("db-port", 0, "postgres port (overrides DB_PORT)")
	flags.String("db-name", "", "postgres database (overrides DB_NAME)")
	flags.String("db-user", "", "postgres user (overrides DB_USER)")
	flags.Bool("json", false, "output JSON")
	for _, name := range []string{"db-host", "db-port", "db-name", "db-user", "json"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(complaintsCmd())
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
				version, err := migrate.Run(ctx, db, log)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]int{"version": version})
				}
				fmt.Printf("schema at version %d\n", version)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create users and classes from a YAML fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.ReadFile(file)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
				seeder := seed.New(repository.NewUserRepository(db), repository.NewClassRepository(db), log)
				result, err := seeder.Apply(ctx, fixture)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(result)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Entity", "Created", "Skipped"})
				tw.AppendRow(table.Row{"users", result.UsersCreated, result.UsersSkipped})
				tw.AppendRow(table.Row{"classes", result.ClassesCreated, result.ClassesSkipped})
				tw.AppendFooter(table.Row{"students assigned", result.StudentsAssigned, ""})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to seed YAML")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func usersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Inspect users"}
	users.AddCommand(usersListCmd())
	return users
}

func usersListCmd() *cobra.Command {
	var role, class, search string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.UserFilter{ClassName: class, Search: search, Limit: limit}
			if role != "" {
				parsed, ok := models.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				filter.Role = &parsed
			}
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB, _ *zap.Logger) error {
				items, total, err := repository.NewUserRepository(db).List(ctx, filter)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"users": items, "count": total})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Class", "Active"})
				for _, u := range items {
					tw.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, u.ClassNameValue(), u.Active})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "total", total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role filter (student, faculty, admin, hr)")
	cmd.Flags().StringVar(&class, "class", "", "class name filter")
	cmd.Flags().StringVar(&search, "search", "", "name or email substring")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	return cmd
}

func complaintsCmd() *cobra.Command {
	complaints := &cobra.Command{Use: "complaints", Short: "Inspect complaints"}
	complaints.AddCommand(complaintsListCmd())
	return complaints
}

func complaintsListCmd() *cobra.Command {
	var statuses []string
	var owner string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List complaints by status and current owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := complaintFilter(statuses, owner, limit)
			if err != nil {
				return err
			}
			filter.Offset = offset
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB, _ *zap.Logger) error {
				items, total, err := repository.NewComplaintRepository(db).List(ctx, filter)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Owner", "Raised By", "Updated"})
				for _, c := range items {
					raiser := c.RaisedBy.Name
					if raiser == "" {
						raiser = c.RaisedByID
					}
					tw.AppendRow(table.Row{c.ID, c.Title, c.Status, c.CurrentOwner, raiser, c.UpdatedAt.Format("2006-01-02 15:04")})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "total", total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "status filter, repeatable")
	cmd.Flags().StringVar(&owner, "owner", "", "current owner role")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func complaintFilter(statuses []string, owner string, limit int) (models.ComplaintFilter, error) {
	filter := models.ComplaintFilter{Limit: limit}
	for _, raw := range statuses {
		status := models.ComplaintStatus(strings.ToLower(strings.TrimSpace(raw)))
		switch status {
		case models.ComplaintStatusPendingFaculty, models.ComplaintStatusPendingAdmin,
			models.ComplaintStatusResolved, models.ComplaintStatusRejected:
			filter.Statuses = append(filter.Statuses, status)
		default:
			return filter, fmt.Errorf("unknown complaint status %q", raw)
		}
	}
	if owner != "" {
		role, ok := models.ParseRole(owner)
		if !ok {
			return filter, fmt.Errorf("unknown owner role %q", owner)
		}
		filter.Owner = &role
	}
	return filter, nil
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("db-host"); v != "" {
		cfg.Database.Host = v
	}
	if v := viper.GetInt("db-port"); v > 0 {
		cfg.Database.Port = v
	}
	if v := viper.GetString("db-name"); v != "" {
		cfg.Database.Name = v
	}
	if v := viper.GetString("db-user"); v != "" {
		cfg.Database.User = v
	}
	return cfg, nil
}

func withDB(ctx context.Context, fn func(context.Context, *sqlx.DB, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db, log)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
