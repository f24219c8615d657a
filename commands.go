package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"foldersort/config"
	"foldersort/database"
	"foldersort/types"
	"foldersort/utils"

	"github.com/spf13/cobra"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <image-a> <image-b>",
		Short: "Print the similarity of two images",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			scorer, closeModel := newScorer(cfg)
			defer closeModel()

			score, err := scorer.Score(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", score)
			return nil
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs, or the moves of one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal := ctx.journalPath(cfg)
			if _, err := os.Stat(journal); err != nil {
				return fmt.Errorf("no journal at %s: %w", journal, err)
			}

			db, err := database.OpenDatabase(journal)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				moves, err := database.ListMoves(db, runID)
				if err != nil {
					return err
				}
				if len(moves) == 0 {
					fmt.Fprintf(out, "No moves recorded for run %s\n", runID)
					return nil
				}
				rows := make([][]string, 0, len(moves))
				for _, m := range moves {
					score := ""
					if m.Kind == types.DecisionExisting.String() {
						score = strconv.FormatFloat(m.Score, 'f', 3, 64)
					}
					rows = append(rows, []string{m.Stage, m.Source, m.Destination, m.Kind, score, m.Error})
				}
				fmt.Fprintln(out, utils.RenderTable("Run "+runID,
					[]string{"Stage", "Source", "Destination", "Kind", "Score", "Error"}, rows,
					[]utils.ColumnAlignment{utils.AlignLeft, utils.AlignLeft, utils.AlignLeft, utils.AlignLeft, utils.AlignRight}))
				return nil
			}

			runs, err := database.ListRuns(db, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				stats, err := database.GetRunStats(db, r.ID)
				if err != nil {
					return err
				}
				finished := "-"
				if !r.FinishedAt.IsZero() {
					finished = utils.FormatDuration(r.FinishedAt.Sub(r.StartedAt))
				}
				mode := "sort"
				if r.Rearrange {
					mode = "sort+rearrange"
				}
				if r.DryRun {
					mode += " (dry run)"
				}
				rows = append(rows, []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					finished,
					r.Root,
					mode,
					strconv.Itoa(stats.Categorized + stats.Existing + stats.NewBuckets),
					strconv.Itoa(stats.Failed),
				})
			}
			fmt.Fprintln(out, utils.RenderTable("Runs",
				[]string{"Run", "Started", "Took", "Root", "Mode", "Moved", "Failed"}, rows,
				[]utils.ColumnAlignment{utils.AlignLeft, utils.AlignLeft, utils.AlignRight, utils.AlignLeft, utils.AlignLeft, utils.AlignRight, utils.AlignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the moves of this run")
	return cmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(strings.TrimSpace(targetPath))
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set model.path to your VGG16 weights before using --rearrange.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "foldersort.toml", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and show what it resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			} else {
				fmt.Fprintln(out, "Config path: (defaults)")
			}
			fmt.Fprintf(out, "Journal: %s\n", ctx.journalPath(cfg))

			names := cfg.CategoryNames()
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strings.Join(cfg.Categories[name], ", ")})
			}
			fmt.Fprintln(out, utils.RenderTable("Categories", []string{"Folder", "Extensions"}, rows, nil))

			if cfg.Model.Path == "" {
				fmt.Fprintln(out, "Model: not configured (--rearrange will fail)")
			} else if _, err := os.Stat(cfg.Model.Path); err != nil {
				fmt.Fprintf(out, "Model: %s (missing)\n", cfg.Model.Path)
			} else {
				fmt.Fprintf(out, "Model: %s\n", filepath.Clean(cfg.Model.Path))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
