// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/lorekeep"
	"github.com/poiesic/lorekeep/config"
	"github.com/poiesic/lorekeep/keyword"
	"github.com/poiesic/lorekeep/reembed"
	"github.com/poiesic/lorekeep/retrieval"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lorekeep",
		Usage: "Knowledge retrieval and ranking for conversational context",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import entries from a text or YAML library file",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Library format (text, yaml); detected from the extension when empty",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Remove every existing entry before importing",
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Rank entries for a conversational context",
				ArgsUsage: "<context>",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"n"},
						Usage:   "Maximum number of entries to return",
						Value:   5,
					},
					&cli.StringSliceFlag{
						Name:  "speaker",
						Usage: "Speaker descriptor (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "listener",
						Usage: "Listener descriptor (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print the score breakdown",
					},
					&cli.BoolFlag{
						Name:  "show-all",
						Usage: "Include entries below the threshold in the trace",
					},
					&cli.BoolFlag{
						Name:  "preview-vector",
						Usage: "Print the semantic matching preview",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the semantic preview query",
						Value: 5 * time.Second,
					},
				},
			},
			{
				Name:      "keywords",
				Usage:     "Show the keywords extracted from a text",
				ArgsUsage: "<text>",
				Action:    keywordsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of keywords",
						Value: 20,
					},
				},
			},
			{
				Name:   "resync",
				Usage:  "Bring the vector index in line with the library",
				Action: resyncCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Resync the vector index on the configured schedule until interrupted",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron expression or descriptor (overrides schedule.resync)",
					},
				},
			},
			{
				Name:   "cleanup",
				Usage:  "Remove extended flags of entries that no longer exist",
				Action: cleanupCommand,
			},
		},
	}
}

// openEngine loads the config named by the global flags and opens an engine.
func openEngine(c *cli.Context) (*lorekeep.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
		cfg.Storage.InMemory = false
	}
	if schedule := c.String("schedule"); schedule != "" {
		cfg.Schedule.Resync = schedule
	}
	eng, err := lorekeep.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return eng, nil
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("library file is required")
	}
	format, err := libraryFormat(path, c.String("format"))
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := c.Context
	if c.Bool("clear") {
		if err := eng.Pipeline().Clear(ctx); err != nil {
			return fmt.Errorf("clearing library: %w", err)
		}
	}

	importer := eng.Pipeline().ImportText
	if format == "yaml" {
		importer = eng.Pipeline().ImportYAML
	}
	added, err := importer(ctx, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d entries from %s\n", len(added), path)
	return nil
}

// libraryFormat picks the import format from the flag or the file extension.
func libraryFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "text"
		}
	}
	switch format {
	case "text", "txt":
		return "text", nil
	case "yaml", "yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unknown format %q: must be text or yaml", format)
	}
}

func retrieveCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("context text is required")
	}

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	req := retrieval.Request{
		Context:    text,
		MaxEntries: c.Int("max"),
		Speaker:    actor("speaker", c.StringSlice("speaker")),
		Listener:   actor("listener", c.StringSlice("listener")),
	}

	res, err := eng.Retrieve(c.Context, req)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	out := c.App.Writer
	if res.Text == "" {
		fmt.Fprintln(out, "No entries matched.")
	} else {
		fmt.Fprint(out, res.Text)
	}

	if c.Bool("trace") {
		fmt.Fprintln(out)
		fmt.Fprint(out, retrieval.RenderTrace(res.Trace, eng.Config().Scoring.Threshold, c.Bool("show-all")))
		if len(res.ExpandedKeywords) > 0 {
			fmt.Fprintln(out)
			fmt.Fprint(out, retrieval.RenderKeywordGroups(res.ExpandedKeywords))
		}
	}

	if c.Bool("preview-vector") {
		preview, err := eng.Retriever().PreviewVector(c.Context, req, c.Duration("timeout"))
		if err != nil {
			return fmt.Errorf("vector preview failed: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, preview.String())
	}
	return nil
}

func actor(id string, descriptors []string) *retrieval.Actor {
	if len(descriptors) == 0 {
		return nil
	}
	return &retrieval.Actor{ID: id, Descriptors: descriptors}
}

func keywordsCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("text is required")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	extractor, err := keyword.NewExtractor(cfg.KeywordConfig())
	if err != nil {
		return err
	}

	keywords := extractor.Extract(text, c.Int("limit"))
	fmt.Fprint(c.App.Writer, retrieval.RenderKeywordGroups(keywords))
	return nil
}

func resyncCommand(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	reembedder, err := eng.NewReembedder(
		reembed.WithProgress(c.App.ErrWriter),
		reembed.WithReportInterval(c.Int("report-interval")),
	)
	if err != nil {
		return fmt.Errorf("resync unavailable: %w", err)
	}
	eng.Pipeline().Wait()
	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("resync failed: %w", err)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	scheduler, err := eng.NewScheduler()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch(ctx, scheduler, c.App.ErrWriter)
}

func watch(ctx context.Context, scheduler *reembed.Scheduler, out io.Writer) error {
	if err := scheduler.RunNow(ctx); err != nil {
		slog.Warn("initial resync failed", "err", err)
	}
	scheduler.Start(ctx)
	fmt.Fprintf(out, "Watching; next resync at %s\n", scheduler.Next().Format(time.RFC3339))
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func cleanupCommand(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	removed, err := eng.Pipeline().Cleanup(c.Context)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Removed %d stale flag records\n", removed)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
