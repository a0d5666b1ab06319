package stego

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/pgm-stego/internal/imaging"
	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// Pipeline loads cover and secret rasters, embeds, extracts, and persists the
// results. Every decode uses the configured dimensions; a zero Dimensions
// trusts each file's header.
type Pipeline struct {
	dims   pgm.Dimensions
	logger *slog.Logger
	cache  *imaging.RasterCache
}

// NewPipeline creates a pipeline for rasters of the given size. A nil logger
// falls back to slog.Default().
func NewPipeline(dims pgm.Dimensions, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{dims: dims, logger: logger}
}

// WithCache routes loads through cache and evicts every path the pipeline
// writes. It returns p for chaining.
func (p *Pipeline) WithCache(cache *imaging.RasterCache) *Pipeline {
	p.cache = cache
	return p
}

// Dimensions returns the configured raster size.
func (p *Pipeline) Dimensions() pgm.Dimensions {
	return p.dims
}

// LoadCover decodes the cover raster at path.
func (p *Pipeline) LoadCover(path string) (*pgm.Raster, error) {
	return p.load("cover", path)
}

// LoadSecret decodes the secret raster at path.
func (p *Pipeline) LoadSecret(path string) (*pgm.Raster, error) {
	return p.load("secret", path)
}

// LoadComposite decodes a previously saved composite raster at path.
func (p *Pipeline) LoadComposite(path string) (*pgm.Raster, error) {
	return p.load("composite", path)
}

// EmbedAndSave embeds secret into a copy of cover and writes the composite
// to outPath in the binary encoding, which preserves exact sample bytes.
func (p *Pipeline) EmbedAndSave(cover, secret *pgm.Raster, outPath string) (*pgm.Raster, error) {
	composite, err := Embed(cover, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to embed secret image: %w", err)
	}
	if err := p.save(outPath, composite, pgm.WriteBinaryFile); err != nil {
		return nil, fmt.Errorf("failed to save stego image: %w", err)
	}
	p.logger.Info("composite saved", "path", outPath, "dimensions", composite.Dimensions().String(),
		"size", p.fileSize(outPath))
	return composite, nil
}

// ExtractAndSave recovers the secret approximation from composite and writes
// it to outPath in the textual encoding. The recovered raster is returned
// even when saving fails, together with the save error.
func (p *Pipeline) ExtractAndSave(composite *pgm.Raster, outPath string) (*pgm.Raster, error) {
	recovered := Extract(composite)
	if err := p.save(outPath, recovered, pgm.WriteTextFile); err != nil {
		return recovered, err
	}
	p.logger.Info("recovered secret saved", "path", outPath, "dimensions", recovered.Dimensions().String(),
		"size", p.fileSize(outPath))
	return recovered, nil
}

// Job names the four files of one embed/extract run.
type Job struct {
	CoverPath     string `json:"cover_path"`
	SecretPath    string `json:"secret_path"`
	CompositePath string `json:"composite_path"`
	RecoveredPath string `json:"recovered_path"`
}

// Report summarizes a completed run.
type Report struct {
	Job
	Dimensions pgm.Dimensions `json:"dimensions"`

	// CompositeDigest and RecoveredDigest are BLAKE3 digests of the sample
	// buffers, so reruns can be checked for byte-identical output.
	CompositeDigest string `json:"composite_digest"`
	RecoveredDigest string `json:"recovered_digest"`

	// CoverDistortion compares cover with composite; SecretDistortion compares
	// secret with the recovered approximation.
	CoverDistortion  *imaging.DistortionResult `json:"cover_distortion"`
	SecretDistortion *imaging.DistortionResult `json:"secret_distortion"`

	// RecoveredSaved is false when writing the recovered raster failed. That
	// failure does not abort the run; RecoveredError carries its message.
	RecoveredSaved bool   `json:"recovered_saved"`
	RecoveredError string `json:"recovered_error,omitempty"`

	DurationMS int64 `json:"duration_ms"`
}

// Run executes the full flow: load cover and secret, embed and save the
// composite, extract and save the recovered secret.
//
// Load failures and composite save failures abort the run. A failure to save
// the recovered raster is logged and reported but Run still succeeds.
// ctx is checked between stages.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Report, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cover, err := p.LoadCover(job.CoverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load cover image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	secret, err := p.LoadSecret(job.SecretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	composite, err := p.EmbedAndSave(cover, secret, job.CompositePath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &Report{
		Job:             job,
		Dimensions:      composite.Dimensions(),
		CompositeDigest: imaging.Digest(composite),
		RecoveredSaved:  true,
	}

	recovered, err := p.ExtractAndSave(composite, job.RecoveredPath)
	if err != nil {
		p.logger.Error("could not save extracted secret image", "path", job.RecoveredPath, "error", err)
		report.RecoveredSaved = false
		report.RecoveredError = err.Error()
	}
	report.RecoveredDigest = imaging.Digest(recovered)

	if report.CoverDistortion, err = imaging.CompareRasters(cover, composite); err != nil {
		return nil, fmt.Errorf("failed to measure cover distortion: %w", err)
	}
	if report.SecretDistortion, err = imaging.CompareRasters(secret, recovered); err != nil {
		return nil, fmt.Errorf("failed to measure secret distortion: %w", err)
	}

	report.DurationMS = time.Since(start).Milliseconds()
	p.logger.Info("pipeline complete",
		"dimensions", report.Dimensions.String(),
		"cover_psnr", report.CoverDistortion.PSNRString(),
		"secret_psnr", report.SecretDistortion.PSNRString(),
		"duration_ms", report.DurationMS)
	return report, nil
}

func (p *Pipeline) load(role, path string) (*pgm.Raster, error) {
	var (
		img *pgm.Raster
		err error
	)
	if p.cache != nil {
		img, err = p.cache.Load(path, p.dims)
	} else {
		img, err = pgm.ReadFile(path, p.dims)
	}
	if err != nil {
		p.logger.Debug("raster load failed", "role", role, "path", path, "error", err)
		return nil, err
	}
	p.logger.Debug("raster loaded", "role", role, "path", path, "dimensions", img.Dimensions().String())
	return img, nil
}

func (p *Pipeline) save(path string, img *pgm.Raster, write func(string, *pgm.Raster) error) error {
	if p.cache != nil {
		p.cache.Evict(path)
	}
	return write(path, img)
}

func (p *Pipeline) fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(st.Size()))
}
