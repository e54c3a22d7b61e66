package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/setup"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/setup/logger"
	"github.com/spf13/cobra"
)

// errToolFailed makes the process exit non-zero without printing twice.
var errToolFailed = errors.New("tool reported an error")

// Loader builds the dependencies a command needs.
type Loader func(ctx context.Context) (*setup.Dependencies, error)

func defaultLoader(ctx context.Context) (*setup.Dependencies, error) {
	cfg, err := setup.LoadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, os.Stderr)
	return setup.Wire(ctx, cfg, &log)
}

func newRootCmd(load Loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "toolctl",
		Short:         "toolctl - run the agent tools from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCmd(load),
		newInvokeCmd(load),
		newClassifyCmd(load),
		newResolveCmd(load),
	)
	return root
}

func newListCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the enabled tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			for _, name := range deps.Toolbox.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newInvokeCmd(load Loader) *cobra.Command {
	var rawArgs []string

	cmd := &cobra.Command{
		Use:   "invoke <tool>",
		Short: "Invoke a tool once and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}

			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			result, err := deps.Toolbox.Invoke(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}

			if result.IsError {
				fmt.Fprintln(cmd.ErrOrStderr(), result.Text)
				return errToolFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "tool argument as key=value (repeatable)")
	return cmd
}

func newClassifyCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <sql>",
		Short: "Show whether the query gate allows a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			verdict := deps.Gate.Classify(args[0])
			if verdict.Allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "denied: %s\n", verdict.Reason)
			return nil
		},
	}
}

func newResolveCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show where a requested path resolves inside the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			res, err := deps.Guard.Resolve(args[0])
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "rejected: %v\n", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path())
			return nil
		},
	}
}

func parseArgs(raw []string) (map[string]any, error) {
	args := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected key=value", kv)
		}
		args[key] = value
	}
	return args, nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultLoader).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
