package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/davidroman0O/buildpipe"
)

var CLI struct {
	Config  string `short:"c" help:"Pipeline configuration file path" default:"buildpipe.yaml"`
	Serve   bool   `short:"s" help:"Start the local dev server after the build"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Replace bool   `help:"Replace list-valued options instead of concatenating them"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("buildpipe"),
		kong.Description("Runs the asset build pipeline described by a configuration file."))

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(slogger)

	logger := buildpipe.NewSlogLogger(slogger)

	buildpipe.ReportEnv(logger)

	if err := run(logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(logger buildpipe.Logger) error {
	opts, err := loadOptions(CLI.Config)
	if err != nil {
		return err
	}

	popts := []buildpipe.PipelineOption{buildpipe.WithPipelineLogger(logger)}
	if CLI.Replace {
		popts = append(popts, buildpipe.WithSliceReplacement())
	}

	pipeline, err := buildpipe.New(opts, buildpipe.Providers{}, popts...)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	metrics := buildpipe.NewMetrics(prometheus.DefaultRegisterer)
	runner := buildpipe.NewRunner(
		buildpipe.WithLogger(logger),
		buildpipe.WithMiddleware(buildpipe.LoggingMiddleware()),
		buildpipe.WithTaskMiddleware(metrics.TaskMiddleware()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sequence := pipeline.Compose(CLI.Serve)

	result := runner.ExecuteWithOptions(pipeline, sequence, buildpipe.RunOptions{
		Logger:  logger,
		Context: ctx,
		OnComplete: func(err error) {
			if err == nil {
				logger.Info("Build complete")
			}
		},
	})
	if result.Error != nil {
		return result.Error
	}

	// The dev server keeps the process alive until interrupted.
	for _, handle := range result.Background {
		if err := handle.Wait(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("background task %s: %w", handle.Name(), err)
		}
	}

	return nil
}

func loadOptions(path string) (buildpipe.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return buildpipe.Options{}, fmt.Errorf("reading configuration: %w", err)
	}

	var opts buildpipe.Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return buildpipe.Options{}, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	return opts, nil
}
