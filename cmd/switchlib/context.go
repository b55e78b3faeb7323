package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"switchlib/internal/config"
	"switchlib/internal/i18n"
	"switchlib/internal/ingest"
	"switchlib/internal/logging"
	"switchlib/internal/services/sevenzip"
	"switchlib/internal/titledb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	runner     sevenzip.Runner
	httpClient titledb.HTTPDoer
}

type contextOption func(*commandContext)

// withRunner replaces the process runner behind the extraction tool.
func withRunner(r sevenzip.Runner) contextOption {
	return func(c *commandContext) { c.runner = r }
}

// withHTTPClient replaces the client used for title database downloads.
func withHTTPClient(client titledb.HTTPDoer) contextOption {
	return func(c *commandContext) { c.httpClient = client }
}

func newCommandContext(configFlag *string, opts ...contextOption) *commandContext {
	ctx := &commandContext{configFlag: configFlag}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

func (c *commandContext) flagConfigPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.flagConfigPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(c.configValue())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) localizer() *i18n.Localizer {
	cfg := c.configValue()
	if cfg == nil {
		return i18n.New("")
	}
	return i18n.New(cfg.Logging.Language)
}

func (c *commandContext) newTool() (*sevenzip.Client, error) {
	cfg := c.configValue()
	var opts []sevenzip.Option
	if c.runner != nil {
		opts = append(opts, sevenzip.WithRunner(c.runner))
	}
	return sevenzip.New(cfg.SevenZipBinary(), cfg.Extraction.ListTimeout, opts...)
}

// openCatalog opens the title database when it has been downloaded. A
// missing or unreadable database degrades to placeholder names.
func (c *commandContext) openCatalog(logger *slog.Logger) *titledb.Store {
	cfg := c.configValue()
	store, err := titledb.OpenExisting(cfg.TitleDBPath())
	if err != nil {
		logging.WarnWithContext(logger, "title database unavailable", "titledb_unavailable",
			logging.String("path", cfg.TitleDBPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "games are named by placeholder"),
		)
		return nil
	}
	return store
}

// withPipeline builds an ingest pipeline for the duration of fn.
func (c *commandContext) withPipeline(fn func(*ingest.Pipeline, *slog.Logger) error) error {
	cfg := c.configValue()
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	tool, err := c.newTool()
	if err != nil {
		return err
	}
	var opts []ingest.Option
	if store := c.openCatalog(logger); store != nil {
		defer store.Close()
		opts = append(opts, ingest.WithCatalog(store))
	}
	return fn(ingest.New(cfg, tool, logger, opts...), logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
