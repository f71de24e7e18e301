// Package config provides configuration management for ogcard using Viper
// for loading from files, environment variables, and command-line flags.
//
// Configuration is read once at process start into a Config value that is
// treated as immutable afterwards and passed explicitly to the components
// that need it. The image section is deliberately not validated here: an
// unsupported format or an out-of-range encoder option surfaces only when
// the encoder is invoked.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/validation"
)

// Supported image format tags.
const (
	FormatWebP = "webp"
	FormatJPEG = "jpeg"
	FormatAVIF = "avif"
	FormatPNG  = "png"
)

// Config is the complete ogcard configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site" mapstructure:"site"`
	Image   ImageConfig   `yaml:"image" mapstructure:"image"`
	Canvas  CanvasConfig  `yaml:"canvas" mapstructure:"canvas"`
	Fonts   []FontConfig  `yaml:"fonts" mapstructure:"fonts"`
	Content ContentConfig `yaml:"content" mapstructure:"content"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Build   BuildConfig   `yaml:"build" mapstructure:"build"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`

	// BaseDir is the directory relative paths are resolved against: the
	// config file's directory, or "." without one.
	BaseDir string `yaml:"-" mapstructure:"-"`
}

// SiteConfig holds the site metadata used for the site-wide image and as
// context on every post image.
type SiteConfig struct {
	Title       string      `yaml:"title" mapstructure:"title"`
	Description string      `yaml:"description" mapstructure:"description"`
	URL         string      `yaml:"url" mapstructure:"url"`
	Author      string      `yaml:"author" mapstructure:"author"`
	Theme       ThemeConfig `yaml:"theme" mapstructure:"theme"`
}

// ThemeConfig holds the colors templates draw with, as hex strings.
type ThemeConfig struct {
	Background    string `yaml:"background" mapstructure:"background"`
	BackgroundEnd string `yaml:"background_end" mapstructure:"background_end"`
	Foreground    string `yaml:"foreground" mapstructure:"foreground"`
	Accent        string `yaml:"accent" mapstructure:"accent"`
	Muted         string `yaml:"muted" mapstructure:"muted"`
}

// ImageConfig selects the output format and carries per-format options.
type ImageConfig struct {
	Format string      `yaml:"format" mapstructure:"format"`
	WebP   WebPOptions `yaml:"webp" mapstructure:"webp"`
	JPEG   JPEGOptions `yaml:"jpeg" mapstructure:"jpeg"`
	AVIF   AVIFOptions `yaml:"avif" mapstructure:"avif"`
	PNG    PNGOptions  `yaml:"png" mapstructure:"png"`
}

// WebPOptions configures WebP encoding.
type WebPOptions struct {
	Quality  int  `yaml:"quality" mapstructure:"quality"`
	Lossless bool `yaml:"lossless" mapstructure:"lossless"`
	Effort   int  `yaml:"effort" mapstructure:"effort"`
}

// JPEGOptions configures JPEG encoding.
type JPEGOptions struct {
	Quality           int    `yaml:"quality" mapstructure:"quality"`
	Progressive       bool   `yaml:"progressive" mapstructure:"progressive"`
	ChromaSubsampling string `yaml:"chroma_subsampling" mapstructure:"chroma_subsampling"`
}

// AVIFOptions configures AVIF encoding.
type AVIFOptions struct {
	Quality           int    `yaml:"quality" mapstructure:"quality"`
	Lossless          bool   `yaml:"lossless" mapstructure:"lossless"`
	Effort            int    `yaml:"effort" mapstructure:"effort"`
	ChromaSubsampling string `yaml:"chroma_subsampling" mapstructure:"chroma_subsampling"`
}

// PNGOptions configures PNG encoding.
type PNGOptions struct {
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// CanvasConfig sets the output dimensions and whether fonts are inlined
// into SVG output.
type CanvasConfig struct {
	Width     int  `yaml:"width" mapstructure:"width"`
	Height    int  `yaml:"height" mapstructure:"height"`
	EmbedFont bool `yaml:"embed_font" mapstructure:"embed_font"`
}

// FontConfig describes a font file to load at startup.
type FontConfig struct {
	Family string `yaml:"family" mapstructure:"family"`
	Path   string `yaml:"path" mapstructure:"path"`
	Weight int    `yaml:"weight" mapstructure:"weight"`
	Style  string `yaml:"style" mapstructure:"style"`
}

// ContentConfig locates the posts that get a per-item image.
type ContentConfig struct {
	Dir           string   `yaml:"dir" mapstructure:"dir"`
	Extensions    []string `yaml:"extensions" mapstructure:"extensions"`
	IncludeDrafts bool     `yaml:"include_drafts" mapstructure:"include_drafts"`
}

// OutputConfig controls where generated images are written.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Clean    bool   `yaml:"clean" mapstructure:"clean"`
	Manifest bool   `yaml:"manifest" mapstructure:"manifest"`
}

// BuildConfig controls the build tool.
type BuildConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig controls the preview server.
type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SetDefaults registers every default on v. Explicitly set values, including
// invalid ones, are never replaced.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("site.title", "My Site")
	v.SetDefault("site.description", "")
	v.SetDefault("site.url", "https://example.com")
	v.SetDefault("site.author", "")
	v.SetDefault("site.theme.background", "#0f172a")
	v.SetDefault("site.theme.background_end", "#1e293b")
	v.SetDefault("site.theme.foreground", "#f8fafc")
	v.SetDefault("site.theme.accent", "#38bdf8")
	v.SetDefault("site.theme.muted", "#94a3b8")

	v.SetDefault("image.format", FormatWebP)
	v.SetDefault("image.webp.quality", 90)
	v.SetDefault("image.webp.lossless", false)
	v.SetDefault("image.webp.effort", 4)
	v.SetDefault("image.jpeg.quality", 90)
	v.SetDefault("image.jpeg.progressive", false)
	v.SetDefault("image.jpeg.chroma_subsampling", "4:2:0")
	v.SetDefault("image.avif.quality", 60)
	v.SetDefault("image.avif.lossless", false)
	v.SetDefault("image.avif.effort", 4)
	v.SetDefault("image.avif.chroma_subsampling", "4:2:0")
	v.SetDefault("image.png.compression", "default")

	v.SetDefault("canvas.width", 1200)
	v.SetDefault("canvas.height", 630)
	v.SetDefault("canvas.embed_font", true)

	v.SetDefault("content.dir", "content/posts")
	v.SetDefault("content.extensions", []string{".md", ".markdown"})
	v.SetDefault("content.include_drafts", false)

	v.SetDefault("output.dir", "dist/og")
	v.SetDefault("output.clean", false)
	v.SetDefault("output.manifest", true)

	v.SetDefault("build.workers", 0)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// EnvPrefix is the prefix of every environment variable override, e.g.
// OGCARD_IMAGE_FORMAT=jpeg.
const EnvPrefix = "OGCARD"

// BindEnv enables OGCARD_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer())
}

func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v after registering defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Viper returns env-provided slices as a single string; re-read them.
	if v.IsSet("content.extensions") {
		cfg.Content.Extensions = v.GetStringSlice("content.extensions")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	cfg.Image.Format = NormalizeFormat(cfg.Image.Format)
	for i := range cfg.Content.Extensions {
		ext := strings.ToLower(strings.TrimSpace(cfg.Content.Extensions[i]))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Content.Extensions[i] = ext
	}

	cfg.BaseDir = "."
	if used := v.ConfigFileUsed(); used != "" {
		cfg.BaseDir = filepath.Dir(used)
	}

	return &cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		// Defaults always unmarshal.
		panic(err)
	}
	return cfg
}

// ResolvePath resolves p against the configuration's base directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Validate checks the structural settings commands depend on. It never
// inspects the image section.
func (c *Config) Validate() error {
	vec := &errors.ValidationErrorCollection{}

	if err := validation.ValidateSiteURL(c.Site.URL); err != nil {
		vec.AddField("site.url", c.Site.URL, err.Error(), "https://example.com")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		vec.AddField("server.port", c.Server.Port, "port must be between 0 and 65535")
	}
	if strings.ContainsAny(c.Server.Host, " \t\r\n") {
		vec.AddField("server.host", c.Server.Host, "host must not contain whitespace")
	}
	if strings.TrimSpace(c.Content.Dir) == "" {
		vec.AddField("content.dir", c.Content.Dir, "content directory is required", "content/posts")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		vec.AddField("output.dir", c.Output.Dir, "output directory is required", "dist/og")
	}
	if c.Canvas.Width <= 0 {
		vec.AddField("canvas.width", c.Canvas.Width, "width must be positive", "1200")
	}
	if c.Canvas.Height <= 0 {
		vec.AddField("canvas.height", c.Canvas.Height, "height must be positive", "630")
	}
	if c.Build.Workers < 0 {
		vec.AddField("build.workers", c.Build.Workers, "workers must not be negative", "0 uses one worker per CPU")
	}
	for i, f := range c.Fonts {
		field := fmt.Sprintf("fonts[%d]", i)
		if strings.TrimSpace(f.Family) == "" {
			vec.AddField(field+".family", f.Family, "font family is required")
		}
		if strings.TrimSpace(f.Path) == "" {
			vec.AddField(field+".path", f.Path, "font path is required")
		} else if err := validation.ValidateFileExtension(f.Path, validation.FontExtensions); err != nil {
			vec.AddField(field+".path", f.Path, err.Error(), validation.FontExtensions...)
		}
		if f.Weight < 0 || f.Weight > 1000 {
			vec.AddField(field+".weight", f.Weight, "weight must be between 0 and 1000", "400", "700")
		}
		if f.Style != "" && f.Style != "normal" && f.Style != "italic" {
			vec.AddField(field+".style", f.Style, "style must be normal or italic")
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		vec.AddField("log.level", c.Log.Level, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		vec.AddField("log.format", c.Log.Format, "format must be text or json")
	}

	if vec.HasErrors() {
		return vec.ToCardError()
	}
	return nil
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger() logging.Logger {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.Log.Format
	return logging.NewLogger(cfg)
}

// NormalizeFormat lowercases a format tag and maps the "jpg" alias.
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "jpg" {
		return FormatJPEG
	}
	return format
}

// Extension returns the file extension (without dot) for the configured
// format. Unknown formats keep their tag so the failure happens at encode
// time, not at routing time.
func (i ImageConfig) Extension() string {
	switch NormalizeFormat(i.Format) {
	case FormatJPEG:
		return "jpg"
	case "":
		return "img"
	default:
		return NormalizeFormat(i.Format)
	}
}

// ContentType returns the MIME type for the configured format, or "" when
// the format is unknown.
func (i ImageConfig) ContentType() string {
	return ContentType(i.Format)
}

// ContentType returns the MIME type for a format tag, or "" when unknown.
func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	case FormatAVIF:
		return "image/avif"
	case FormatPNG:
		return "image/png"
	default:
		return ""
	}
}

// Formats lists the supported format tags.
func Formats() []string {
	return []string{FormatWebP, FormatJPEG, FormatAVIF, FormatPNG}
}
