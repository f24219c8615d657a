package main

import (
	"fmt"
	"strings"
	"sync"

	"foldersort/config"
	"foldersort/imageprocessor"
	"foldersort/logging"
	"foldersort/similarity"
	"foldersort/utils"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag  *string
	debugFlag   *bool
	logFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, debugFlag *bool, logFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		debugFlag:   debugFlag,
		logFileFlag: logFileFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if exists {
			c.configPath = resolved
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// setupLogging applies the flags over the [logging] section
func (c *commandContext) setupLogging(cfg *config.Config) error {
	debug := cfg.Logging.Debug
	if c.debugFlag != nil && *c.debugFlag {
		debug = true
	}
	logFile := cfg.Logging.File
	if c.logFileFlag != nil && strings.TrimSpace(*c.logFileFlag) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(*c.logFileFlag))
		if err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
		logFile = expanded
	}
	if err := logging.SetupLogger(logFile, debug); err != nil {
		return err
	}
	if c.configPath != "" {
		logging.DebugLog("Using configuration %s", c.configPath)
	} else {
		logging.DebugLog("No configuration file found, using defaults")
	}
	return nil
}

func (c *commandContext) journalPath(cfg *config.Config) string {
	if cfg.Journal.Path != "" {
		return cfg.Journal.Path
	}
	return utils.GetDefaultJournalPath()
}

// newScorer loads the feature model once. A load failure is not fatal here:
// the returned scorer reports it on every call.
func newScorer(cfg *config.Config) (*similarity.Scorer, func()) {
	extractor, err := imageprocessor.NewFeatureExtractor(imageprocessor.ModelOptions{
		Path:        cfg.Model.Path,
		ConfigPath:  cfg.Model.ConfigPath,
		OutputLayer: cfg.Model.OutputLayer,
		InputSize:   cfg.Model.InputSize,
	}, nil)
	if err != nil {
		logging.LogError("Feature model unavailable: %v", err)
		return similarity.Unavailable(err), func() {}
	}
	return similarity.New(extractor), func() {
		if err := extractor.Close(); err != nil {
			logging.LogWarning("Closing feature model: %v", err)
		}
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
