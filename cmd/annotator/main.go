// Command annotator inspects and updates the annotations of scanned
// directory pages held by the storage service.
package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/time/rate"

	"github.com/tsawler/annotator/config"
	"github.com/tsawler/annotator/remote"
)

const version = "0.1.0"

// CLI defines the command-line interface for annotator.
var CLI struct {
	Config  string `name:"config" short:"c" help:"YAML configuration file" type:"path"`
	Verbose bool   `name:"verbose" short:"v" help:"Log debug messages"`

	Directories DirectoriesCmd `cmd:"" help:"List the documents of the storage service"`
	Pages       PagesCmd       `cmd:"" help:"Print the number of pages of a document"`
	Show        ShowCmd        `cmd:"" help:"Print the annotations of a page"`
	Check       CheckCmd       `cmd:"" help:"Validate an annotation file"`
	NER         NERCmd         `cmd:"" name:"ner" help:"Recompute the entity markup of a page"`
	OCR         OCRCmd         `cmd:"" name:"ocr" help:"Transcribe an annotation again"`
	Version     VersionCmd     `cmd:"" help:"Print version information"`
}

// stdout is where commands print their results
var stdout io.Writer = os.Stdout

// env is what every command that talks to the services needs
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *remote.Client
}

func setup() (*env, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	client := remote.New(
		serviceOptions(cfg.Storage, logger),
		serviceOptions(cfg.Compute, logger),
	)
	client.Compute.NERModel = cfg.NER.Model

	return &env{cfg: cfg, logger: logger, client: client}, nil
}

func serviceOptions(s config.ServiceConfig, logger *slog.Logger) []remote.RequestOption {
	opts := []remote.RequestOption{
		remote.WithURL(s.URL),
		remote.WithToken(s.Token),
		remote.WithClient(&http.Client{Timeout: s.Timeout}),
		remote.WithLogger(logger),
	}

	if s.RateLimit > 0 {
		opts = append(opts, remote.WithLimiter(rate.NewLimiter(rate.Limit(s.RateLimit), s.Burst)))
	}

	return opts
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("annotator"),
		kong.Description("Annotation editor for scanned directory pages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
