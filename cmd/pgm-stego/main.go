// Command pgm-stego hides one grayscale PGM image inside another by nibble
// substitution, recovers it, and serves the same operations over MCP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/pgm-stego/internal/config"
	"github.com/ironsheep/pgm-stego/internal/imaging"
	"github.com/ironsheep/pgm-stego/internal/logging"
	"github.com/ironsheep/pgm-stego/internal/pgm"
	"github.com/ironsheep/pgm-stego/internal/server"
	"github.com/ironsheep/pgm-stego/internal/stego"
	"github.com/ironsheep/pgm-stego/internal/tokens"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// CLI defines the command-line interface for pgm-stego.
type CLI struct {
	Globals

	Run         RunCmd     `cmd:"" default:"withargs" help:"Embed the secret in the cover, then extract it again (default)"`
	Embed       EmbedCmd   `cmd:"" help:"Hide a secret raster in a cover raster"`
	Extract     ExtractCmd `cmd:"" help:"Recover the hidden secret from a composite"`
	Info        InfoCmd    `cmd:"" help:"Show format, size, digest, and statistics of rasters"`
	Compare     CompareCmd `cmd:"" help:"Measure distortion between two rasters"`
	Preview     PreviewCmd `cmd:"" help:"Render a raster or one of its nibble planes as an image"`
	Import      ImportCmd  `cmd:"" help:"Convert a PNG, JPEG, or GIF into a raster"`
	Scan        ScanCmd    `cmd:"" help:"Keep the valid float literals of a text file"`
	Serve       ServeCmd   `cmd:"" help:"Run the MCP server on stdin/stdout"`
	WriteConfig ConfigCmd  `cmd:"" name:"write-config" help:"Write the effective configuration as YAML"`
	Version     VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file" default:"pgm-stego.yaml" type:"path"`
	Width     int    `help:"Raster width (overrides config)"`
	Height    int    `help:"Raster height (overrides config)"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error (overrides config)"`
	LogFormat string `name:"log-format" help:"Log format: text or json (overrides config)"`
}

// App carries the resolved configuration and logger into commands.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

func newApp(g Globals, stderr, stdout io.Writer) (*App, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Width != 0 {
		cfg.Width = g.Width
	}
	if g.Height != 0 {
		cfg.Height = g.Height
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		Logger: logging.New(level, format, stderr),
		Out:    stdout,
	}, nil
}

func (a *App) pipeline() *stego.Pipeline {
	return stego.NewPipeline(a.Config.Dimensions(), a.Logger)
}

func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RunCmd performs the complete embed and extract flow.
type RunCmd struct {
	Cover     string `help:"Cover raster (default from config)"`
	Secret    string `help:"Secret raster (default from config)"`
	Composite string `help:"Composite output, binary P5 (default from config)"`
	Recovered string `help:"Recovered secret output, text P2 (default from config)"`
	JSON      bool   `help:"Print the report as JSON"`
}

func (c *RunCmd) Run(app *App) error {
	job := stego.Job{
		CoverPath:     firstNonEmpty(c.Cover, app.Config.Files.Cover),
		SecretPath:    firstNonEmpty(c.Secret, app.Config.Files.Secret),
		CompositePath: firstNonEmpty(c.Composite, app.Config.Files.Composite),
		RecoveredPath: firstNonEmpty(c.Recovered, app.Config.Files.Recovered),
	}

	report, err := app.pipeline().Run(context.Background(), job)
	if err != nil {
		return err
	}
	if c.JSON {
		return app.printJSON(report)
	}

	fmt.Fprintf(app.Out, "Composite:  %s (%s)\n", report.CompositePath, report.Dimensions)
	if report.RecoveredSaved {
		fmt.Fprintf(app.Out, "Recovered:  %s\n", report.RecoveredPath)
	} else {
		fmt.Fprintf(app.Out, "Recovered:  not saved (%s)\n", report.RecoveredError)
	}
	fmt.Fprintf(app.Out, "Cover PSNR: %s\n", report.CoverDistortion.PSNRString())
	fmt.Fprintf(app.Out, "Secret PSNR: %s\n", report.SecretDistortion.PSNRString())
	return nil
}

// EmbedCmd hides a secret in a cover.
type EmbedCmd struct {
	Cover  string `arg:"" help:"Cover raster" type:"existingfile"`
	Secret string `arg:"" help:"Secret raster" type:"existingfile"`
	Output string `arg:"" help:"Composite output (P5)"`
}

func (c *EmbedCmd) Run(app *App) error {
	p := app.pipeline()
	cover, err := p.LoadCover(c.Cover)
	if err != nil {
		return fmt.Errorf("failed to load cover image: %w", err)
	}
	secret, err := p.LoadSecret(c.Secret)
	if err != nil {
		return fmt.Errorf("failed to load secret image: %w", err)
	}
	if _, err := p.EmbedAndSave(cover, secret, c.Output); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, c.Output)
	return nil
}

// ExtractCmd recovers a hidden secret.
type ExtractCmd struct {
	Composite string `arg:"" help:"Composite raster" type:"existingfile"`
	Output    string `arg:"" help:"Recovered secret output (P2)"`
}

func (c *ExtractCmd) Run(app *App) error {
	p := app.pipeline()
	composite, err := p.LoadComposite(c.Composite)
	if err != nil {
		return fmt.Errorf("failed to load stego image: %w", err)
	}
	if _, err := p.ExtractAndSave(composite, c.Output); err != nil {
		return fmt.Errorf("could not save extracted secret image: %w", err)
	}
	fmt.Fprintln(app.Out, c.Output)
	return nil
}

// InfoCmd reports raster metadata.
type InfoCmd struct {
	Paths []string `arg:"" help:"Raster files" type:"existingfile"`
	Any   bool     `help:"Accept any dimensions instead of the configured ones"`
	JSON  bool     `help:"Print JSON"`
}

func (c *InfoCmd) Run(app *App) error {
	dims := app.Config.Dimensions()
	if c.Any {
		dims = pgm.Dimensions{}
	}

	cache := imaging.NewRasterCache()
	infos := make([]*imaging.RasterInfo, 0, len(c.Paths))
	for _, path := range c.Paths {
		info, err := imaging.LoadRasterInfo(cache, path, dims)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		infos = append(infos, info)
	}
	if c.JSON {
		return app.printJSON(infos)
	}

	for _, info := range infos {
		compressed := ""
		if info.Compressed {
			compressed = ", xz"
		}
		fmt.Fprintf(app.Out, "%s: %s%s %dx%d, %s, min %d max %d mean %.2f\n  blake3 %s\n",
			info.Path, info.Format, compressed, info.Width, info.Height, info.FileSize,
			info.Min, info.Max, info.Mean, info.Digest)
	}
	return nil
}

// CompareCmd measures distortion between two rasters.
type CompareCmd struct {
	A    string `arg:"" help:"Reference raster" type:"existingfile"`
	B    string `arg:"" help:"Raster to compare" type:"existingfile"`
	Map  string `help:"Save a distortion heat map to this image file"`
	JSON bool   `help:"Print JSON"`
}

func (c *CompareCmd) Run(app *App) error {
	a, err := pgm.ReadFile(c.A, app.Config.Dimensions())
	if err != nil {
		return err
	}
	b, err := pgm.ReadFile(c.B, app.Config.Dimensions())
	if err != nil {
		return err
	}

	result, err := imaging.CompareRasters(a, b)
	if err != nil {
		return err
	}
	if c.Map != "" {
		heat, err := imaging.DistortionMap(a, b)
		if err != nil {
			return err
		}
		if _, err := imaging.Preview(heat, nil, 1, c.Map); err != nil {
			return err
		}
	}
	if c.JSON {
		return app.printJSON(result)
	}

	fmt.Fprintf(app.Out, "MSE %.3f, PSNR %s, max abs error %d, %d of %d samples differ\n",
		result.MSE, result.PSNRString(), result.MaxAbsError, result.SamplesDifferent, result.TotalSamples)
	return nil
}

// PreviewCmd renders a raster for viewing.
type PreviewCmd struct {
	Path   string  `arg:"" help:"Raster file" type:"existingfile"`
	Output string  `arg:"" help:"Image output (png, jpg, gif, tif, bmp)"`
	Plane  string  `help:"Render only the high or low nibble plane"`
	Scale  float64 `help:"Scale factor" default:"1"`
	Region []int   `help:"Crop region x1,y1,x2,y2 before scaling" sep:","`
}

func (c *PreviewCmd) Run(app *App) error {
	img, err := pgm.ReadFile(c.Path, app.Config.Dimensions())
	if err != nil {
		return err
	}

	var region *imaging.Region
	if len(c.Region) > 0 {
		if len(c.Region) != 4 {
			return fmt.Errorf("region needs 4 values, got %d", len(c.Region))
		}
		region = &imaging.Region{X1: c.Region[0], Y1: c.Region[1], X2: c.Region[2], Y2: c.Region[3]}
	}

	var result *imaging.PreviewResult
	if c.Plane != "" {
		plane, err := imaging.BitPlane(img, imaging.Plane(c.Plane))
		if err != nil {
			return err
		}
		result, err = imaging.Preview(plane, region, c.Scale, c.Output)
		if err != nil {
			return err
		}
	} else {
		result, err = imaging.Preview(img.Gray(), region, c.Scale, c.Output)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(app.Out, "%s (%dx%d)\n", result.Path, result.Width, result.Height)
	return nil
}

// ImportCmd converts an ordinary image into a raster.
type ImportCmd struct {
	Source string `arg:"" help:"PNG, JPEG, or GIF image" type:"existingfile"`
	Output string `arg:"" help:"Raster output"`
	Resize bool   `help:"Resize to the configured dimensions"`
	Binary bool   `help:"Write P5 instead of P2"`
}

func (c *ImportCmd) Run(app *App) error {
	var dims pgm.Dimensions
	if c.Resize {
		dims = app.Config.Dimensions()
	}
	img, err := imaging.ImportImage(c.Source, dims)
	if err != nil {
		return err
	}

	write := pgm.WriteTextFile
	if c.Binary {
		write = pgm.WriteBinaryFile
	}
	if err := write(c.Output, img); err != nil {
		return err
	}
	app.Logger.Info("image imported", "source", c.Source, "output", c.Output, "dimensions", img.Dimensions().String())
	fmt.Fprintln(app.Out, c.Output)
	return nil
}

// ScanCmd filters float literals out of a text file.
type ScanCmd struct {
	Input  string `arg:"" help:"Text file to scan" type:"existingfile"`
	Output string `arg:"" optional:"" help:"Where to write valid values (default valid_data.txt)" default:"valid_data.txt"`
}

func (c *ScanCmd) Run(app *App) error {
	in, err := os.Open(c.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	summary, err := tokens.Process(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Number of invalid float values: %d\n", summary.Invalid)
	return nil
}

// ServeCmd runs the MCP server.
type ServeCmd struct{}

func (c *ServeCmd) Run(app *App) error {
	app.Logger.Debug("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit,
		"dimensions", app.Config.Dimensions().String())
	return server.New(app.Config.Dimensions(), app.Logger).WithVersion(Version).Run()
}

// ConfigCmd writes the resolved configuration so it can be edited and reused.
type ConfigCmd struct {
	Output string `arg:"" help:"Destination YAML file" type:"path"`
}

func (c *ConfigCmd) Run(app *App) error {
	if err := config.Save(c.Output, app.Config); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Configuration written to %s\n", c.Output)
	return nil
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Out, "pgm-stego %s\n", Version)
	fmt.Fprintf(app.Out, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(app.Out, "  Git commit: %s\n", GitCommit)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pgm-stego"),
		kong.Description("Hide one grayscale PGM image inside another"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Logs go to stderr; stdout carries results and, in serve mode, MCP.
	app, err := newApp(cli.Globals, os.Stderr, os.Stdout)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}
