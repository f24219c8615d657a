package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"foldersort/bucket"
	"foldersort/config"
	"foldersort/database"
	"foldersort/fsops"
	"foldersort/logging"
	"foldersort/organizer"
	"foldersort/signalhandler"
	"foldersort/utils"

	"github.com/spf13/cobra"
)

type organizeOptions struct {
	dir       string
	rearrange bool
	dryRun    bool
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var debugFlag bool
	var logFileFlag string
	var opts organizeOptions

	ctx := newCommandContext(&configFlag, &debugFlag, &logFileFlag)

	rootCmd := &cobra.Command{
		Use:   "foldersort",
		Short: "Sort files into category folders and group similar images",
		Long: "foldersort moves loose files into <dir>/<category>/<extension>/ and, with\n" +
			"--rearrange, groups images into folders of visually similar pictures.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.setupLogging(cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir == "" {
				return errors.New("--dir is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runOrganize(cmd.OutOrStdout(), ctx, cfg, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML, or legacy config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "logfile", "", "Also write the log to this file")

	rootCmd.Flags().StringVar(&opts.dir, "dir", "", "Directory to organize")
	rootCmd.Flags().BoolVar(&opts.rearrange, "rearrange", false, "Group images into folders of similar pictures")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would happen without changing anything")

	rootCmd.AddCommand(newScoreCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func runOrganize(out io.Writer, ctx *commandContext, cfg *config.Config, opts organizeOptions) error {
	root, err := utils.ResolveRoot(opts.dir)
	if err != nil {
		return fmt.Errorf("invalid --dir: %w", err)
	}

	var (
		lock     *signalhandler.RunLock
		db       *sql.DB
		recorder *database.Recorder
		runID    string
	)

	if cfg.Journal.Enabled {
		journal := ctx.journalPath(cfg)
		lock, err = signalhandler.AcquireRunLock(journal)
		if err != nil {
			return err
		}
		defer lock.Release()

		db, err = database.InitDatabase(journal)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", journal, err)
		}
		defer db.Close()

		run, err := database.StartRun(db, root, opts.rearrange, opts.dryRun)
		if err != nil {
			return err
		}
		runID = run.ID
		recorder = database.NewRecorder(db, runID)
		logging.DebugLog("Journal %s, run %s", journal, runID)
	}

	stop := signalhandler.SetupHandler(func() {
		if db != nil {
			if runID != "" {
				_ = database.FinishRun(db, runID)
			}
			db.Close()
		}
		lock.Release()
		logging.CloseLogger()
	})
	defer stop()

	fsys := fsops.New()
	var assigner *bucket.Assigner
	if opts.rearrange {
		scorer, closeModel := newScorer(cfg)
		defer closeModel()
		assigner = bucket.NewAssigner(fsys, scorer, bucket.WithFolderPrefix(cfg.Rearrange.FolderPrefix))
	}

	orgOpts := []organizer.Option{organizer.WithDryRun(opts.dryRun)}
	if recorder != nil {
		orgOpts = append(orgOpts, organizer.WithRecorder(recorder))
	}
	org := organizer.New(cfg, fsys, assigner, orgOpts...)

	logging.LogInfo("Organizing %s (rearrange: %v, dry run: %v)", root, opts.rearrange, opts.dryRun)
	summary, runErr := org.Run(root, opts.rearrange)

	if db != nil {
		if err := database.FinishRun(db, runID); err != nil {
			logging.LogWarning("Cannot close run in journal: %v", err)
		}
	}

	summary.Print(out)
	if runErr != nil {
		return runErr
	}
	if n := len(summary.Failures); n > 0 {
		logging.LogWarning("%d files could not be processed", n)
	}
	return nil
}
