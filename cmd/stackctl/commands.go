package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/afro-network/ceo-agent/internal/auth"
	"github.com/afro-network/ceo-agent/internal/docker"
	"github.com/afro-network/ceo-agent/internal/stack"
	"github.com/afro-network/ceo-agent/pkg/client"
)

// NewRootCommand creates the stackctl root command
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "stackctl",
		Short:         "Operate the AFRO network stack through the CEO Agent",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.validateOutput()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.ServerURL, "server", "s", envOr("AFRO_SERVER_URL", "http://localhost:3000"), "CEO Agent base URL (env AFRO_SERVER_URL)")
	flags.StringVar(&a.Token, "token", envOr("AFRO_TOKEN", ""), "operator bearer token (env AFRO_TOKEN)")
	flags.DurationVar(&a.Timeout, "timeout", 0, "request timeout, 0 keeps the client default")
	flags.StringVarP(&a.Output, "output", "o", outputText, "output format: text, json or yaml")
	flags.BoolVarP(&a.Verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		NewStatusCommand(a),
		NewModesCommand(a),
		NewLifecycleCommand(a, stack.OpStart, "Start services, a whole mode, or the full stack"),
		NewLifecycleCommand(a, stack.OpStop, "Stop services, a whole mode, or take the stack down"),
		NewLifecycleCommand(a, stack.OpRestart, "Restart services, a whole mode, or the full stack"),
		NewGitCommand(a),
		NewExecCommand(a),
		NewLogsCommand(a),
		NewOperationsCommand(a),
		NewWatchCommand(a),
		NewTokenCommand(a),
	)
	return root
}

func upDown(up bool) string {
	if up {
		return color.GreenString("up")
	}
	return color.RedString("down")
}

func printStatus(cmd *cobra.Command, status stack.StackStatus) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "mainnet\t%s\n", upDown(status.Mainnet))
	fmt.Fprintf(w, "testnet\t%s\n", upDown(status.Testnet))
	fmt.Fprintf(w, "explorer\t%s\n", upDown(status.Explorer))
	fmt.Fprintf(w, "website\t%s\n", upDown(status.Website))
	fmt.Fprintf(w, "ceo\t%s\n", upDown(status.CEO))
	w.Flush()
	if !status.Connected {
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "container runtime not reachable")
	}
}

// NewStatusCommand reports the derived stack status
func NewStatusCommand(a *App) *cobra.Command {
	var detail bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which service groups are running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}

			if !detail {
				status, err := c.StackStatus(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := a.structured(cmd.OutOrStdout(), status); ok {
					return err
				}
				printStatus(cmd, *status)
				return nil
			}

			report, err := c.StackStatusDetail(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := a.structured(cmd.OutOrStdout(), report); ok {
				return err
			}
			printStatus(cmd, report.StackStatus)
			if len(report.Containers) > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CONTAINER\tSTATUS")
				for _, ctr := range report.Containers {
					fmt.Fprintf(w, "%s\t%s\n", ctr.Name, ctr.Status)
				}
				w.Flush()
			}
			if report.Error != "" {
				color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "error: %s\n", report.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&detail, "detail", "d", false, "include the parsed container list")
	return cmd
}

// NewModesCommand lists the operation modes
func NewModesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List operation modes and their services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			modes, err := c.Modes(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := a.structured(cmd.OutOrStdout(), modes); ok {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODE\tNAME\tSERVICES")
			for _, m := range modes.Modes {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, strings.Join(m.Services, ", "))
			}
			return w.Flush()
		},
	}
}

// printOperation renders a staged command response and turns success false
// into errOperationFailed.
func printOperation(cmd *cobra.Command, a *App, resp interface{}, success bool, stage, message, command string, logs []string, errText string) error {
	if ok, err := a.structured(cmd.OutOrStdout(), resp); ok {
		if err != nil {
			return err
		}
		if !success {
			return errOperationFailed
		}
		return nil
	}

	out := cmd.OutOrStdout()
	if command != "" {
		color.New(color.FgCyan).Fprintf(out, "$ %s\n", command)
	}
	for _, line := range logs {
		fmt.Fprintln(out, line)
	}
	if success {
		color.New(color.FgGreen).Fprintln(out, message)
		return nil
	}

	color.New(color.FgRed).Fprintf(out, "[%s] %s\n", stage, message)
	if errText != "" && errText != message {
		color.New(color.FgRed).Fprintln(out, errText)
	}
	return errOperationFailed
}

// NewLifecycleCommand builds start, stop or restart
func NewLifecycleCommand(a *App, op stack.Operation, short string) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   string(op) + " [service...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			if err := a.requireBackend(cmd.Context(), cmd, c); err != nil {
				return err
			}

			resp, err := c.Operate(cmd.Context(), stack.OperationRequest{
				Operation: string(op),
				Mode:      mode,
				Services:  args,
			})
			if err != nil {
				return err
			}
			return printOperation(cmd, a, resp, resp.Success, string(resp.Stage), resp.Message, resp.Command, resp.Logs, resp.Error)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "operation mode (production, testnet, dual, website, development)")
	return cmd
}

// NewGitCommand runs clone, pull or build on the stack repository
func NewGitCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:       "git clone|pull|build",
		Short:     "Clone or update the stack repository, or rebuild its images",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"clone", "pull", "build"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			if err := a.requireBackend(cmd.Context(), cmd, c); err != nil {
				return err
			}

			resp, err := c.Git(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOperation(cmd, a, resp, resp.Success, string(resp.Stage), resp.Message, resp.Command, resp.Logs, resp.Error)
		},
	}
}

// NewExecCommand runs one allow-listed command line
func NewExecCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   `exec "<command>"`,
		Short: "Run an allow-listed docker, docker-compose or git command on the host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			if err := a.requireBackend(cmd.Context(), cmd, c); err != nil {
				return err
			}

			resp, err := c.Execute(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, w := range resp.Warnings {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return printOperation(cmd, a, resp, resp.Success, resp.Stage, resp.Message, resp.Command, resp.Logs, resp.Error)
		},
	}
}

// NewLogsCommand prints or follows a service's logs
func NewLogsCommand(a *App) *cobra.Command {
	var (
		tail   int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Show the recent log lines of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if follow {
				return c.FollowLogs(cmd.Context(), args[0], tail, func(line docker.LogLine) {
					if line.Stream == "stderr" {
						color.New(color.FgYellow).Fprintln(out, line.Line)
						return
					}
					fmt.Fprintln(out, line.Line)
				})
			}

			resp, err := c.Logs(cmd.Context(), args[0], tail)
			if err != nil {
				return err
			}
			if ok, err := a.structured(out, resp); ok {
				return err
			}
			for _, line := range resp.Logs {
				fmt.Fprintln(out, line)
			}
			if !resp.Success {
				color.New(color.FgRed).Fprintf(out, "failed to read logs for %s: %s\n", resp.Container, resp.Error)
				return errOperationFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&tail, "tail", "n", 100, "number of lines (1 to 1000)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new lines until interrupted")
	return cmd
}

// NewOperationsCommand lists recorded stack and git operations
func NewOperationsCommand(a *App) *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List recent stack and git operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			resp, err := c.Operations(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}
			if ok, err := a.structured(cmd.OutOrStdout(), resp); ok {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tOPERATION\tRESULT\tCOMMAND")
			for _, op := range resp.Operations {
				result := color.GreenString("ok")
				if !op.Success {
					result = color.RedString("failed")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					op.CreatedAt.Local().Format("2006-01-02 15:04:05"), op.Kind, op.Operation, result, op.Command)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind: stack or git")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries, 0 uses the server default")
	return cmd
}

type stateChange struct {
	to  client.State
	err error
}

// NewWatchCommand runs the connection probe and prints status until interrupted
func NewWatchCommand(a *App) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch backend reachability and stack status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			changes := make(chan stateChange, 8)
			probe := client.NewProbe(c, client.ProbeConfig{
				Interval: interval,
				Logger:   a.Logger(),
				OnChange: func(_, to client.State, err error) {
					select {
					case changes <- stateChange{to: to, err: err}:
					case <-ctx.Done():
					}
				},
			})
			go probe.Run(ctx)

			fmt.Fprintf(out, "watching %s every %s\n", c.BaseURL(), probe.Interval())
			ticker := time.NewTicker(probe.Interval())
			defer ticker.Stop()

			report := func() {
				status, err := c.StackStatus(ctx)
				if err != nil {
					if ctx.Err() == nil {
						a.Logger().WithError(err).Warn("Failed to read stack status")
					}
					return
				}
				printStatus(cmd, *status)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case ch := <-changes:
					stamp := time.Now().Format("15:04:05")
					switch ch.to {
					case client.StateConnected:
						color.New(color.FgGreen).Fprintf(out, "%s backend connected\n", stamp)
						report()
					default:
						color.New(color.FgRed).Fprintf(out, "%s backend unreachable: %v\n", stamp, ch.err)
					}
				case <-ticker.C:
					if probe.State() == client.StateConnected {
						report()
					}
				}
			}
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", client.DefaultProbeInterval, "probe interval, clamped to 5s..15s")
	return cmd
}

// NewTokenCommand mints an operator token from the shared secret
func NewTokenCommand(a *App) *cobra.Command {
	var (
		secret   string
		operator string
		issuer   string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator JWT for the mutating routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or AFRO_AUTH_SECRET)")
			}
			svc := auth.NewTokenService(auth.TokenConfig{Secret: secret, TTL: ttl, Issuer: issuer}, a.Logger())
			token, details, err := svc.Issue(operator)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			if ok, err := a.structured(cmd.OutOrStdout(), map[string]interface{}{
				"token":      token,
				"operator":   details.Operator,
				"token_id":   details.TokenID,
				"expires_at": details.ExpiresAt,
			}); ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "operator %s, expires %s\n", details.Operator, details.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envOr("AFRO_AUTH_SECRET", ""), "HMAC secret shared with the agent (env AFRO_AUTH_SECRET)")
	cmd.Flags().StringVar(&operator, "operator", envOr("USER", "operator"), "operator name placed in the token subject")
	cmd.Flags().StringVar(&issuer, "issuer", "afro-ceo-agent", "token issuer, must match auth.token_issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
