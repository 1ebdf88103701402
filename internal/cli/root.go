package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/studyflow/studyflow/internal/api"
	"github.com/studyflow/studyflow/internal/cache"
	"github.com/studyflow/studyflow/internal/config"
	"github.com/studyflow/studyflow/internal/credential"
	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/tui"
)

var cfg *config.Config

// New builds the studyflow command tree. The bare command launches the
// TUI; subcommands cover headless session management and the dev server.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studyflow",
		Short:         "Terminal study organizer with Pomodoro timer and weekly agenda",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			lc := logger.DefaultConfig()
			lc.Level = logger.ParseLevel(cfg.LogLevel)
			if cfg.LogFile != "" {
				lc.FilePath = cfg.LogFile
			}
			lc.Console = cfg.LogConsole
			return logger.Init(lc)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, client, err := newStore()
			if err != nil {
				return err
			}

			app := tui.NewApp(store, cfg)
			p := tea.NewProgram(app, tea.WithAltScreen())

			logger.Info("starting TUI", logger.F("server", cfg.ServerURL))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}

			// Keep the session across restarts.
			if token := client.SessionToken(); token != "" {
				if err := credential.SaveSessionToken(token); err != nil {
					logger.Warn("could not persist session", logger.F("error", err))
				}
			}
			return nil
		},
	}

	addLogin(cmd)
	addLogout(cmd)
	addWhoami(cmd)
	addServe(cmd)
	return cmd
}

func newStore() (*state.Store, *api.Client, error) {
	client, err := api.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("creating API client: %w", err)
	}
	client.SetSessionToken(credential.SessionToken())

	cachePath, err := cache.DefaultBasePath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving cache path: %w", err)
	}

	return state.New(client, cache.Open(cachePath)), client, nil
}
