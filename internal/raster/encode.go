package raster

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
)

// Image is an encoded artifact.
type Image struct {
	Data          []byte
	Format        string
	ContentType   string
	Width, Height int
}

// Option ranges accepted by the encoders.
const (
	MinQuality    = 1
	MaxQuality    = 100
	MaxWebPEffort = 6
	MaxAVIFEffort = 9
)

// Chroma subsampling tags.
const (
	Chroma420 = "4:2:0"
	Chroma444 = "4:4:4"
)

var pngLevels = map[string]png.CompressionLevel{
	"":        png.DefaultCompression,
	"default": png.DefaultCompression,
	"none":    png.NoCompression,
	"fast":    png.BestSpeed,
	"best":    png.BestCompression,
}

// Validate checks the options of the selected format. Options of the other
// formats are ignored.
func Validate(cfg config.ImageConfig) error {
	format := config.NormalizeFormat(cfg.Format)
	switch format {
	case config.FormatWebP:
		o := cfg.WebP
		if err := checkQuality(format, o.Quality); err != nil {
			return err
		}
		if o.Effort < 0 || o.Effort > MaxWebPEffort {
			return errors.ErrInvalidOption(format, "effort", o.Effort, "must be between 0 and 6")
		}
	case config.FormatJPEG:
		o := cfg.JPEG
		if err := checkQuality(format, o.Quality); err != nil {
			return err
		}
		if o.ChromaSubsampling != "" && o.ChromaSubsampling != Chroma420 {
			return errors.ErrInvalidOption(format, "chroma_subsampling", o.ChromaSubsampling, "only 4:2:0 is supported")
		}
	case config.FormatAVIF:
		o := cfg.AVIF
		if err := checkQuality(format, o.Quality); err != nil {
			return err
		}
		if o.Effort < 0 || o.Effort > MaxAVIFEffort {
			return errors.ErrInvalidOption(format, "effort", o.Effort, "must be between 0 and 9")
		}
		if _, ok := avifChroma(o.ChromaSubsampling); !ok {
			return errors.ErrInvalidOption(format, "chroma_subsampling", o.ChromaSubsampling, "must be 4:2:0 or 4:4:4")
		}
	case config.FormatPNG:
		if _, ok := pngLevels[cfg.PNG.Compression]; !ok {
			return errors.ErrInvalidOption(format, "compression", cfg.PNG.Compression, "must be default, none, fast or best")
		}
	default:
		return errors.ErrUnsupportedFormat(cfg.Format)
	}
	return nil
}

// Encode serializes img in the configured format. Invalid options fail
// before any encoding work starts.
func Encode(img image.Image, cfg config.ImageConfig) (*Image, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	format := config.NormalizeFormat(cfg.Format)
	var buf bytes.Buffer
	var err error

	switch format {
	case config.FormatWebP:
		err = webp.Encode(&buf, img, webp.Options{
			Quality:  cfg.WebP.Quality,
			Lossless: cfg.WebP.Lossless,
			Method:   cfg.WebP.Effort,
		})
	case config.FormatJPEG:
		// The encoder only writes baseline JPEG; Progressive is accepted and ignored.
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(cfg.JPEG.Quality))
	case config.FormatAVIF:
		err = avif.Encode(&buf, img, avifOptions(cfg.AVIF))
	case config.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevels[cfg.PNG.Compression]))
	}
	if err != nil {
		return nil, errors.NewRenderError(errors.ErrCodeEncodeFailed, "failed to encode "+format, err).
			WithContext("format", format)
	}

	bounds := img.Bounds()
	return &Image{
		Data:        buf.Bytes(),
		Format:      format,
		ContentType: config.ContentType(format),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func checkQuality(format string, q int) error {
	if q < MinQuality || q > MaxQuality {
		return errors.ErrInvalidOption(format, "quality", q, "must be between 1 and 100")
	}
	return nil
}

func avifChroma(tag string) (image.YCbCrSubsampleRatio, bool) {
	switch tag {
	case "", Chroma420:
		return image.YCbCrSubsampleRatio420, true
	case Chroma444:
		return image.YCbCrSubsampleRatio444, true
	default:
		return 0, false
	}
}

// avifOptions maps effort 0..9 onto encoder speed 10..1. Lossless output
// uses full quality without chroma subsampling.
func avifOptions(o config.AVIFOptions) avif.Options {
	chroma, _ := avifChroma(o.ChromaSubsampling)
	opts := avif.Options{
		Quality:           o.Quality,
		QualityAlpha:      o.Quality,
		Speed:             10 - o.Effort,
		ChromaSubsampling: chroma,
	}
	if o.Lossless {
		opts.Quality = MaxQuality
		opts.QualityAlpha = MaxQuality
		opts.ChromaSubsampling = image.YCbCrSubsampleRatio444
	}
	return opts
}
