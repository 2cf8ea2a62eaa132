package syncer

import (
	"log/slog"

	"github.com/starford/raido/internal/images"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/trace"
)

// Pipeline runs the two synchronization passes in order with an explicit
// data handoff: the blog pass produces the entry list the log pass resolves
// against. When the blog pass finds nothing published the run ends there.
type Pipeline struct {
	blog   *Blog
	log    *Log
	logger *slog.Logger
}

// Report aggregates the results of one pipeline run. Log is nil when the
// run ended after the blog pass.
type Report struct {
	Blog *models.SyncResult
	Log  *models.SyncResult
}

// NewPipeline wires both passes over a shared layout, converter, and
// run-scoped tracer.
func NewPipeline(layout *Layout, converter images.Converter, logger *slog.Logger, tr *trace.Tracer) *Pipeline {
	return &Pipeline{
		blog:   &Blog{Layout: layout, Converter: converter, Logger: logger, Tracer: tr},
		log:    &Log{Layout: layout, Converter: converter, Logger: logger, Tracer: tr},
		logger: logger,
	}
}

// Run executes the blog pass, then the log pass fed with its entries.
func (p *Pipeline) Run(paths Paths) (*Report, error) {
	blogResult, err := p.blog.Run(paths)
	if err != nil {
		return nil, err
	}
	if blogResult.PublishedCount == 0 {
		return &Report{Blog: blogResult}, nil
	}
	logResult, err := p.log.Run(paths, blogResult.Entries)
	if err != nil {
		return nil, err
	}
	return &Report{Blog: blogResult, Log: logResult}, nil
}
