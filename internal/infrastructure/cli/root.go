package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harshaljain-cs/jarvis-go/internal/app"
	"github.com/harshaljain-cs/jarvis-go/internal/services"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra command tree.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	askCmd := newAskCommand(container)

	root := &cobra.Command{
		Use:   "jarvis [command text]",
		Short: "Jarvis - a voice-style assistant for your terminal",
		Long:  "Jarvis parses natural-language commands into intents and runs the matching tools, asking first when it is not sure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			askCmd.SetArgs(args)
			return askCmd.ExecuteContext(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(askCmd)
	root.AddCommand(newChatCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newToolsCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newRecallCommand(container))
	return root, nil
}

func newAskCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [command text]",
		Short: "Process a single command and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := container.Agent.NewSession()
			outcome := session.Process(cmd.Context(), strings.Join(args, " "))
			NewRenderer().RenderOutcome(outcome)
			return nil
		},
	}
}

func newChatCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			renderer := NewRenderer()
			renderer.RenderVerbatim("Jarvis is listening. Ctrl-D or Ctrl-C to leave.")

			session := container.Agent.NewSession()
			session.StartListener(ctx, NewLineListener(os.Stdin))

			err := session.Run(ctx, func(outcome services.CommandOutcome) {
				renderer.RenderOutcome(outcome)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit int
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				return renderStats(container)
			}
			records, err := container.Memory.RecentCommands(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No commands recorded yet.")
				return nil
			}
			for _, rec := range records {
				status := "ok"
				if !rec.Success {
					status = "failed"
				}
				fmt.Printf("%-20s  %-12s  %-6s  %s\n",
					humanize.Time(rec.Timestamp), rec.Intent, status, rec.Command)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show aggregate statistics instead of entries")
	return cmd
}

func renderStats(container *app.Container) error {
	stats, err := container.Memory.CommandStats()
	if err != nil {
		return err
	}
	fmt.Printf("Commands processed: %d\n", stats.Total)
	fmt.Printf("Successful:         %d\n", stats.Successful)
	fmt.Printf("Average time:       %.2fs\n", stats.AvgTime)
	if len(stats.TopIntents) > 0 {
		fmt.Println("Top intents:")
		for intent, count := range stats.TopIntents {
			fmt.Printf("  %-14s %d\n", intent, count)
		}
	}
	return nil
}

func newToolsCommand(container *app.Container) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := container.Registry.List(category)
			if len(descriptors) == 0 {
				fmt.Println("No tools registered.")
				return nil
			}
			for _, desc := range descriptors {
				fmt.Printf("%-14s %-8s %-14s %s\n",
					desc.Name, desc.Risk, desc.Category, desc.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	return cmd
}

func newConfigCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := yaml.Marshal(container.Config)
			if err != nil {
				return err
			}
			fmt.Print(string(raw))
			return nil
		},
	}
}

func newRecallCommand(container *app.Container) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Search past interactions by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := container.Agent.Recall.Search(cmd.Context(), strings.Join(args, " "), top)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("Nothing relevant remembered.")
				return nil
			}
			for _, hit := range hits {
				fmt.Printf("%.2f  [%s]  %s\n", hit.Score, hit.Kind, hit.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "k", 5, "Number of results")
	return cmd
}
