package cmd

import (
	"context"
	"os"

	"github.com/spf13/viper"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/scanner"
)

// app holds the services one command invocation works with. Everything is
// built once from an immutable configuration.
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	fonts     *fonts.Set
	registry  *registry.PostRegistry
	scanner   *scanner.PostScanner
	generator *renderer.Generator
}

// loadConfig reads and structurally validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and fonts and scans content. Font failures
// abort. With strict set, any unreadable post aborts as well; otherwise it
// is logged and skipped.
func newApp(ctx context.Context, strict bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger()

	fs, err := fonts.Load(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.NewPostRegistry()
	sc := scanner.NewPostScanner(reg, cfg.Content.Extensions, logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		fonts:     fs,
		registry:  reg,
		scanner:   sc,
		generator: renderer.NewGenerator(cfg, fs, logger),
	}

	if err := a.scan(ctx, strict); err != nil {
		return nil, err
	}
	return a, nil
}

// scan registers every post in the content directory. A missing content
// directory leaves only the site image.
func (a *app) scan(ctx context.Context, strict bool) error {
	dir := a.cfg.ResolvePath(a.cfg.Content.Dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		a.logger.Warn(ctx, nil, "content directory does not exist; only the site image is available", "dir", dir)
		return nil
	}

	err := a.scanner.ScanDirectory(dir)
	if err == nil {
		a.logger.Debug(ctx, "content scanned", "dir", dir, "posts", a.registry.Count())
		return nil
	}
	if strict || errors.IsIOError(err) {
		return err
	}
	a.logger.Warn(ctx, err, "some posts were skipped", "dir", dir)
	return nil
}
