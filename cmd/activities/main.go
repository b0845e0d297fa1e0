package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"learnlens/internal/enrich"
	"learnlens/internal/filter"
	"learnlens/internal/models"
)

type options struct {
	tables   string
	profile  string
	timezone string
}

type filterFlags struct {
	keyword    string
	assistants []string
	subjects   []string
	chapters   []string
	exercises  []string
	from       string
	to         string
	minScore   float64
	maxScore   float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "activities",
		Short: "Enrich and filter a child's activity history offline",
		Long: `Reads a JSON array of activity records and prints enriched records or
the filtered view an engine produces over them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.tables, "tables", "", "YAML enrichment tables (default: built-in tables)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "cascade", "Filter profile: cascade, score or simple")
	root.PersistentFlags().StringVar(&opts.timezone, "timezone", "UTC", "Timezone for date-only values")

	root.AddCommand(newEnrichCmd(opts), newFilterCmd(opts), newReplayCmd(opts))
	return root
}

func newEnrichCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <activities.json>",
		Short: "Print every activity with its derived fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enricher, err := opts.enricher()
			if err != nil {
				return err
			}
			raw, err := readActivities(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), enricher.EnrichAll(raw))
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	f := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "filter <activities.json>",
		Short: "Print the view matching the given filters",
		Example: `  activities filter history.json --assistant "J'Apprends" --subject Mathématiques
  activities filter history.json --from 2025-03-01 --to 2025-03-31 --keyword lecture
  activities filter history.json --profile score --min-score 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			actions, err := f.actions(cmd, cfg.Location)
			if err != nil {
				return err
			}
			return opts.replay(cmd.OutOrStdout(), args[0], cfg, actions)
		},
	}
	cmd.Flags().StringVar(&f.keyword, "keyword", "", "Case-insensitive search in title, subject and assistant")
	cmd.Flags().StringArrayVar(&f.assistants, "assistant", nil, "Assistant to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.subjects, "subject", nil, "Subject to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.chapters, "chapter", nil, "Chapter to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.exercises, "exercise", nil, "Exercise type to include (repeatable)")
	cmd.Flags().StringVar(&f.from, "from", "", "First day to include")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day to include")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "Lowest score percentage to include")
	cmd.Flags().Float64Var(&f.maxScore, "max-score", 100, "Highest score percentage to include")
	return cmd
}

func newReplayCmd(opts *options) *cobra.Command {
	var commandsPath string
	cmd := &cobra.Command{
		Use:   "replay <activities.json>",
		Short: "Apply a JSON list of filter commands and print the view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(commandsPath)
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}
			var commands []filter.Command
			if err := json.Unmarshal(data, &commands); err != nil {
				return fmt.Errorf("failed to parse commands: %w", err)
			}
			actions, err := filter.Actions(commands, cfg.Location)
			if err != nil {
				return err
			}
			return opts.replay(cmd.OutOrStdout(), args[0], cfg, actions)
		},
	}
	cmd.Flags().StringVar(&commandsPath, "commands", "", "JSON file holding an array of commands")
	_ = cmd.MarkFlagRequired("commands")
	return cmd
}

func (o *options) enricher() (*enrich.Enricher, error) {
	if o.tables == "" {
		return enrich.New(nil), nil
	}
	tables, err := enrich.LoadTables(o.tables)
	if err != nil {
		return nil, err
	}
	return enrich.New(tables), nil
}

func (o *options) config() (filter.Config, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return filter.Config{}, fmt.Errorf("invalid timezone %q: %w", o.timezone, err)
	}
	cfg, err := filter.ConfigByName(o.profile)
	if err != nil {
		return filter.Config{}, err
	}
	cfg.Location = loc
	return cfg, nil
}

func (o *options) replay(w io.Writer, path string, cfg filter.Config, actions []filter.Action) error {
	enricher, err := o.enricher()
	if err != nil {
		return err
	}
	raw, err := readActivities(path)
	if err != nil {
		return err
	}
	engine := filter.Replay(raw, actions, filter.WithConfig(cfg), filter.WithEnricher(enricher))
	return writeJSON(w, engine.View())
}

// actions turns the flags that were set into filter actions, parents
// before children so the cascade keeps every selection.
func (f *filterFlags) actions(cmd *cobra.Command, loc *time.Location) ([]filter.Action, error) {
	var actions []filter.Action
	if f.keyword != "" {
		actions = append(actions, filter.SetKeyword{Keyword: f.keyword})
	}
	if len(f.assistants) > 0 {
		actions = append(actions, filter.SetAssistants{Names: f.assistants})
	}
	if len(f.subjects) > 0 {
		actions = append(actions, filter.SetSubjects{Names: f.subjects})
	}
	if len(f.chapters) > 0 {
		actions = append(actions, filter.SetChapters{Names: f.chapters})
	}
	if len(f.exercises) > 0 {
		actions = append(actions, filter.SetExercises{Names: f.exercises})
	}

	if f.from != "" || f.to != "" {
		rng := filter.Command{Type: "set_date_range", Start: f.from, End: f.to}
		a, err := rng.Action(loc)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	flags := cmd.Flags()
	if flags.Changed("min-score") || flags.Changed("max-score") {
		var lo, hi *float64
		if flags.Changed("min-score") {
			lo = &f.minScore
		}
		if flags.Changed("max-score") {
			hi = &f.maxScore
		}
		actions = append(actions, filter.SetScoreRange{Min: lo, Max: hi})
	}
	return actions, nil
}

func readActivities(path string) ([]models.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	var activities []models.Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse activities: %w", err)
	}
	return activities, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
