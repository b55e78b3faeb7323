package ingest

import (
	"context"
	"log/slog"

	"switchlib/internal/config"
	"switchlib/internal/device"
	"switchlib/internal/extraction"
	"switchlib/internal/logging"
	"switchlib/internal/resolver"
	"switchlib/internal/titledb"
	"switchlib/internal/titleid"
)

// ArchiveTool lists and extracts archives.
type ArchiveTool interface {
	resolver.Lister
	extraction.Tool
}

// Catalog provides title metadata.
type Catalog interface {
	Lookup(ctx context.Context, id titleid.ID) (titledb.Info, bool, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCatalog sets the metadata source used to name games.
func WithCatalog(c Catalog) Option {
	return func(p *Pipeline) {
		p.catalog = c
	}
}

// WithSink sets the device sink used for device targets.
func WithSink(s device.Sink) Option {
	return func(p *Pipeline) {
		p.sink = s
	}
}

// Pipeline runs scans and ingestion for one configuration.
type Pipeline struct {
	cfg       *config.Config
	resolver  *resolver.Resolver
	extractor *extraction.Extractor
	catalog   Catalog
	sink      device.Sink
	passwords []string
	logger    *slog.Logger
}

// New builds a pipeline. Without a sink, device targets use a MountSink
// built from the device configuration.
func New(cfg *config.Config, tool ArchiveTool, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		resolver:  resolver.New(tool, logger),
		extractor: extraction.New(tool, logger),
		passwords: extraction.BuildPasswordList(cfg.Extraction.Passwords, cfg.Extraction.DefaultPasswords),
		logger:    logging.NewComponentLogger(logger, "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sink == nil && cfg.OutputIsDevice() {
		p.sink = device.NewMountSinkFromConfig(cfg, logger)
	}
	return p
}

// Passwords returns the ordered password list used for peeks and
// extraction.
func (p *Pipeline) Passwords() []string {
	return append([]string(nil), p.passwords...)
}
