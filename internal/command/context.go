package command

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/db"
	"github.com/spf13/cobra"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Config     core.Config
	ConfigPath string
	Client     *api.Client
	Logger     *slog.Logger
	JSONMode   bool

	db       *sql.DB
	closeLog func() error
}

// GetContext loads config, applies flag overrides and builds the API client.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, _ := cmd.Flags().GetString("config")
	server, _ := cmd.Flags().GetString("server")
	user, _ := cmd.Flags().GetString("user")
	jsonMode, _ := cmd.Flags().GetBool("json")

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(server) != "" {
		cfg.ServerURL = strings.TrimSpace(server)
	}
	if strings.TrimSpace(user) != "" {
		cfg.UserID = strings.TrimSpace(user)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := core.SetupLogger(cfg)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.ServerURL, cfg.UserID, cfg.Token)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	client.SetSearchPath(cfg.SearchPath)
	client.SetLogger(logger)

	if configPath == "" {
		configPath, _ = core.ConfigPath()
	}

	return &CommandContext{
		Config:     cfg,
		ConfigPath: configPath,
		Client:     client,
		Logger:     logger,
		JSONMode:   jsonMode,
		closeLog:   closeLog,
	}, nil
}

// DB opens the local state database on first use.
func (c *CommandContext) DB() (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	conn, err := db.Open(c.Config.DBPath)
	if err != nil {
		return nil, err
	}
	c.db = conn
	return conn, nil
}

// Close releases the database and log file.
func (c *CommandContext) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.closeLog != nil {
		_ = c.closeLog()
	}
}
