// Package cli wires the agentteam command line: the interactive TUI by
// default, plus scriptable subcommands that share its synchronizer.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"agentteam/api"
	"agentteam/beacon"
	"agentteam/config"
	"agentteam/model"
	"agentteam/ui"
)

var version = "dev"

// options holds the global flags.
type options struct {
	baseURL string
	debug   bool
}

// Execute runs the root command. Called once by main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "agentteam",
		Short: "Terminal client for the AgentTeam multi-agent chat",
		Long: `agentteam talks to an AgentTeam backend: pick an agent (or the whole
team), read the conversation and send messages.

Run without a subcommand for the interactive interface.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.setup()
			if err != nil {
				return err
			}
			return runTUI(cfg, client)
		},
	}

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "backend URL (overrides settings.toml and "+config.EnvBaseURL+")")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug.log to the data directory")

	rootCmd.AddCommand(
		newAgentsCmd(opts),
		newHistoryCmd(opts),
		newSendCmd(opts),
		newHealthCmd(opts),
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// backend client.
func (o *options) setup() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	config.InitDebugLog(cfg.DataDir(), o.debug)

	client, err := api.NewClient(cfg.APIURL(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[CLI] Using backend %s", client.BaseURL())
	}
	return cfg, client, nil
}

func runTUI(cfg *config.Config, client *api.Client) error {
	var exitBeacon *beacon.Beacon
	if cfg.ExitBeacon {
		exitBeacon = beacon.New(client, beacon.DefaultTimeout)
	}

	view := ui.NewAppView(model.NewModel(cfg, client), exitBeacon).WithVersion(version)
	p := tea.NewProgram(
		view,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}
	return nil
}
