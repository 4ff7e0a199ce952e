package templates

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/resume-builder/internal/logging"
)

// ErrTemplateNotFound is returned by Select for an id absent from the listing.
var ErrTemplateNotFound = errors.New("template not found")

// Catalog lists templates from an optional remote source and falls back to
// the built-in set when the source is missing, failing, or empty.
type Catalog struct {
	source Source
	logger *zap.Logger
	group  singleflight.Group
}

// NewCatalog creates a catalog. source may be nil.
func NewCatalog(source Source, logger *zap.Logger) *Catalog {
	logger = logging.OrNop(logger)
	return &Catalog{source: source, logger: logger}
}

// List returns the available templates. It never fails: any remote problem
// degrades to Builtin(). Concurrent calls share one remote request.
func (c *Catalog) List(ctx context.Context) []Template {
	if c.source == nil {
		return Builtin()
	}

	// The shared call outlives any one caller; sources bound it themselves.
	v, err, shared := c.group.Do("templates", func() (any, error) {
		return c.source.Templates(context.WithoutCancel(ctx))
	})
	if err != nil {
		c.logger.Warn("template source unavailable, using built-in catalog", zap.Error(err))
		return Builtin()
	}

	list := v.([]Template)
	if len(list) == 0 {
		c.logger.Warn("template source returned no templates, using built-in catalog")
		return Builtin()
	}

	c.logger.Debug("loaded remote templates", zap.Int("count", len(list)), zap.Bool("shared", shared))
	out := make([]Template, len(list))
	copy(out, list)
	return out
}

// Select returns the style of the template with the given id.
func (c *Catalog) Select(ctx context.Context, id string) (Selection, error) {
	for _, t := range c.List(ctx) {
		if t.ID == id {
			return Selection{ID: t.ID, Style: t.Style.withDefaults()}, nil
		}
	}
	return Selection{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

// StyleFor resolves a template id to a style. An empty id yields
// DefaultStyle; an unknown id is an error.
func (c *Catalog) StyleFor(ctx context.Context, id string) (Style, error) {
	if id == "" {
		return DefaultStyle(), nil
	}
	sel, err := c.Select(ctx, id)
	if err != nil {
		return Style{}, err
	}
	return sel.Style, nil
}
