package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agentteam/api"
	"agentteam/model"
)

func newAgentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agents the backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.setup()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			agents, err := client.ListAgents(ctx)
			if err != nil {
				return fmt.Errorf("failed to list agents: %w", err)
			}
			printAgents(cmd.OutOrStdout(), agents)
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var agent string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a conversation as the interface would show it",
		Long: `Without --agent, prints the most recent messages across all threads.
With --agent, prints that agent's direct conversation; --agent Team prints
the team thread.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.setup()
			if err != nil {
				return err
			}

			m := model.NewModel(cfg, client)
			if limit > 0 {
				m.HistoryLimit = limit
			}

			if agent == "" {
				m.Drain(m.Init())
			} else {
				m.Drain(m.SelectAgent(agent))
			}
			if m.LastError != nil {
				return fmt.Errorf("failed to load messages: %w", m.LastError)
			}

			printConversation(cmd.OutOrStdout(), m)
			return nil
		},
	}

	cmd.Flags().StringVarP(&agent, "agent", "a", "", "agent name, or "+api.TeamName+" for the team thread")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of recent messages to scan (default from settings)")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "send --agent NAME MESSAGE...",
		Short: "Send a message and print the updated conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.setup()
			if err != nil {
				return err
			}

			m := model.NewModel(cfg, client)
			m.Drain(m.SelectAgent(agent))
			if m.LastError != nil {
				return fmt.Errorf("failed to load conversation: %w", m.LastError)
			}

			content := strings.Join(args, " ")
			cmdSend := m.SendMessage(content)
			if cmdSend == nil {
				if m.LastError != nil {
					return m.LastError
				}
				return fmt.Errorf("message is empty")
			}
			m.Drain(cmdSend)
			if m.LastError != nil {
				return fmt.Errorf("failed to send message: %w", m.LastError)
			}

			printConversation(cmd.OutOrStdout(), m)
			return nil
		},
	}

	cmd.Flags().StringVarP(&agent, "agent", "a", "", "agent name, or "+api.TeamName+" to message the whole team")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.setup()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			status, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend at %s is unreachable: %w", client.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", client.BaseURL(), status.Status, status.Service)
			return nil
		},
	}
}
