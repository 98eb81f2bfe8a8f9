package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ploomesterm/internal/config"
	"ploomesterm/internal/crm"
	"ploomesterm/internal/logging"
	"ploomesterm/internal/session"
	"ploomesterm/internal/storage"
	"ploomesterm/internal/views"
)

// cli holds what every command needs once configuration has been loaded.
type cli struct {
	config  *config.Config
	logger  *zap.Logger
	session *session.Session
	client  *crm.Client
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	logger, err := logging.New(home, cfg.LogLevel, config.IsDebugEnabled())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := storage.NewStorage()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	sess, err := session.Load(store, logger)
	if err != nil {
		return err
	}

	client, err := crm.NewClient(cfg.ToClientConfig(logger))
	if err != nil {
		return err
	}

	c.config = cfg
	c.logger = logger
	c.session = sess
	c.client = client

	logger.Debug("command started", zap.String("command", cmd.CommandPath()), zap.Int("args", len(args)))
	return nil
}

func (c *cli) teardown(*cobra.Command, []string) {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "plterm",
		Short: "Browse and edit Ploomes CRM contacts from the terminal",
		Long: `plterm lists, searches, edits, deletes and creates contacts of a Ploomes CRM account.

Run without arguments to open the interactive contact list. The User-Key entered there
(or with "plterm login") is stored encrypted under ~/.plterm until you leave.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: c.teardown,
		RunE:              c.runTUI,
	}

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newThemeCmd(c),
		newContactsCmd(c),
		newFilterCmd(),
	)
	return root
}

func (c *cli) runTUI(cmd *cobra.Command, args []string) error {
	app := views.NewAppModel(views.Deps{
		Session: c.session,
		API:     c.client,
		Config:  c.config,
		Logger:  c.logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}

// describe renders command errors, using the banner wording for CRM failures.
func describe(err error) string {
	var crmErr *crm.Error
	if errors.As(err, &crmErr) {
		return crmErr.UserMessage()
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
	stop()
}
