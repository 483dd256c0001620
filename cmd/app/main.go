package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/finsage/internal"
	pkgconfig "github.com/starford/finsage/pkg/config"
)

const defaultConfigPath = "config/config.yaml"

// loadConfig reads and validates the config file named by --config. A missing
// file is reported with setup guidance instead of a bare parse error.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	if !pkgconfig.Exists(configPath) {
		fmt.Fprintf(os.Stderr, "Config file %s not found.\n", configPath)
		fmt.Fprintln(os.Stderr, "Copy config/config.yaml from the repository or pass --config <path>.")
		return nil, cli.Exit("", 1)
	}

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func stderrLogger(cfg *internal.Config) internal.Option {
	return internal.WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	})))
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !pkgconfig.Exists(".env") {
		fmt.Fprintln(os.Stderr, "Warning: .env not found. Copy .env.example to .env and set GEMINI_API_KEY to enable answers.")
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), stderrLogger(cfg))
}

func runIngest(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.Ingest(ctx, os.Stdout, internal.WithConfig(cfg), stderrLogger(cfg))
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if rep.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	question := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return cli.Exit("usage: finsage ask <question>", 2)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ans, err := internal.Ask(ctx, question, internal.WithConfig(cfg), stderrLogger(cfg))
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}
	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range ans.Sources {
			fmt.Printf("  - %s (chunk %d, similarity %.2f)\n", s.Filename, s.ChunkIndex, s.Similarity)
		}
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "finsage",
		Usage:  "Personal finance question answering grounded in your own reference documents",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the knowledge base as MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:   "ingest",
				Usage:  "Load new files from the documents folder and exit",
				Action: runIngest,
			},
			{
				Name:      "ask",
				Usage:     "Answer one question and exit",
				ArgsUsage: "<question>",
				Action:    runAsk,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the full answer as JSON"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
