// Package renderer orchestrates card generation: it selects the template
// for a variant, lays out the resulting markup, rasterizes the scene and
// encodes it in the configured format.
//
// A Generator holds only immutable state (configuration and parsed fonts),
// so one instance serves any number of concurrent Generate calls.
package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/layout"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/raster"
	"github.com/conneroisu/ogcard/internal/templates"
	"github.com/conneroisu/ogcard/internal/types"
	"github.com/conneroisu/ogcard/internal/validation"
	"github.com/conneroisu/ogcard/internal/vector"
)

// Generation stages, reported in error context.
const (
	StageTemplate = "template"
	StageLayout   = "layout"
	StageRaster   = "raster"
	StageEncode   = "encode"
)

// Generator turns template parameters into encoded images.
type Generator struct {
	cfg    *config.Config
	fonts  *fonts.Set
	canvas templates.Canvas
	logger logging.Logger
}

// NewGenerator creates a generator. cfg and fs must not be modified
// afterwards.
func NewGenerator(cfg *config.Config, fs *fonts.Set, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		cfg:    cfg,
		fonts:  fs,
		canvas: templates.CanvasFrom(cfg),
		logger: logger.WithComponent("renderer"),
	}
}

// Config returns the configuration the generator was built with.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// Fonts returns the generator's font set.
func (g *Generator) Fonts() *fonts.Set {
	return g.fonts
}

// Generate renders variant with p and encodes it. Stages run strictly in
// sequence; the first failure is returned as a typed error wrapping its
// cause, with no partial result.
func (g *Generator) Generate(ctx context.Context, variant string, p templates.Params) (*raster.Image, error) {
	perf := logging.StartOperation(g.logger, "generate")

	scene, err := g.Scene(ctx, variant, p)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, variant, StageRaster); err != nil {
		return nil, err
	}
	img, err := raster.Rasterize(scene, g.fonts)
	if err != nil {
		return nil, stageError(err, variant, StageRaster)
	}

	if err := checkContext(ctx, variant, StageEncode); err != nil {
		return nil, err
	}
	out, err := raster.Encode(img, g.cfg.Image)
	if err != nil {
		return nil, stageError(err, variant, StageEncode)
	}

	perf.End(ctx, "variant", variant, "id", p.Identifier, "format", out.Format, "bytes", len(out.Data))
	return out, nil
}

// Scene runs the template and layout stages only.
func (g *Generator) Scene(ctx context.Context, variant string, p templates.Params) (*vector.Scene, error) {
	tmpl, ok := templates.Lookup(variant)
	if !ok {
		return nil, errors.ErrUnknownVariant(variant).WithComponent("renderer")
	}

	if err := checkContext(ctx, variant, StageTemplate); err != nil {
		return nil, err
	}
	root := tmpl(p, g.canvas)

	if err := checkContext(ctx, variant, StageLayout); err != nil {
		return nil, err
	}
	scene, err := layout.Render(root, g.fonts, g.canvas.Width, g.canvas.Height)
	if err != nil {
		return nil, stageError(err, variant, StageLayout)
	}
	return scene, nil
}

// RenderSVG writes the vector form of variant to w. Fonts are inlined when
// the canvas configuration asks for it.
func (g *Generator) RenderSVG(ctx context.Context, variant string, p templates.Params, w io.Writer) error {
	scene, err := g.Scene(ctx, variant, p)
	if err != nil {
		return err
	}
	if err := scene.WriteSVG(w, g.fonts, g.cfg.Canvas.EmbedFont); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write svg", err).
			WithComponent("renderer").WithContext("variant", variant)
	}
	return nil
}

// GenerateSite renders the site-wide card.
func (g *Generator) GenerateSite(ctx context.Context) (*raster.Image, error) {
	return g.Generate(ctx, templates.VariantSite, SiteParams(g.cfg))
}

// GeneratePost renders the card of post.
func (g *Generator) GeneratePost(ctx context.Context, post *types.Post) (*raster.Image, error) {
	return g.Generate(ctx, templates.VariantPost, PostParams(g.cfg, post))
}

// SiteParams builds the site card parameters from site metadata.
func SiteParams(cfg *config.Config) templates.Params {
	return templates.Params{
		Title:       validation.SanitizeText(cfg.Site.Title),
		Description: validation.SanitizeText(cfg.Site.Description),
		Identifier:  templates.VariantSite,
		Author:      validation.SanitizeText(cfg.Site.Author),
		SiteName:    validation.SanitizeText(cfg.Site.Title),
		SiteURL:     cfg.Site.URL,
	}
}

// PostParams builds the card parameters of post. The post's author falls
// back to the site author. Control characters are stripped from text.
func PostParams(cfg *config.Config, post *types.Post) templates.Params {
	author := post.Author
	if author == "" {
		author = cfg.Site.Author
	}

	var tags []string
	for _, t := range post.Tags {
		if t = strings.TrimSpace(validation.SanitizeText(t)); t != "" {
			tags = append(tags, t)
		}
	}

	return templates.Params{
		Title:       validation.SanitizeText(post.Title),
		Description: validation.SanitizeText(post.Description),
		Identifier:  post.ID,
		Author:      validation.SanitizeText(author),
		Date:        post.Date,
		Tags:        tags,
		SiteName:    validation.SanitizeText(cfg.Site.Title),
		SiteURL:     cfg.Site.URL,
	}
}

func checkContext(ctx context.Context, variant, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "generation cancelled", err).
			WithComponent("renderer").WithContext("variant", variant).WithContext("stage", stage)
	}
	return nil
}

// stageError tags a typed stage failure with where it happened. Untyped
// failures are wrapped as render errors.
func stageError(err error, variant, stage string) error {
	ce, ok := errors.AsCardError(err)
	if !ok {
		ce = errors.NewRenderError(errors.ErrCodeLayoutFailed, stage+" failed", err)
	}
	if ce.Component == "" {
		ce.Component = "renderer"
	}
	return ce.WithContext("variant", variant).WithContext("stage", stage)
}
