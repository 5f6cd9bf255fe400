// cmd/rainymusic/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/keshon/rainymusic/internal/config"
	"github.com/keshon/rainymusic/internal/discord"
	"github.com/keshon/rainymusic/internal/logger"
	"github.com/keshon/rainymusic/internal/music/lavalink"
	"github.com/keshon/rainymusic/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const appName = "rainymusic"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          appName,
		Short:        "Discord music bot backed by Lavalink",
		Version:      appVersion(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Connect to Discord and serve music commands",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBot(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "nodes",
			Short: "Check that the configured Lavalink node answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
				defer cancel()
				return probeNodes(ctx, cfg, cmd)
			},
		},
		&cobra.Command{
			Use:   "history <guild-id>",
			Short: "Print the last commands used in a guild",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				return printHistory(cfg, args[0], cmd)
			},
		},
	)
	return root
}

func runBot(parent context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	_, closer, err := logger.Setup(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closer.Close()

	log.Info().Str("version", appVersion()).Msgf("starting %s", appName)

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	bot, err := discord.New(cfg, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("discord bot error")
		return err
	}

	log.Info().Msg("discord bot exited cleanly")
	return nil
}

func probeNodes(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	client := lavalink.New([]lavalink.NodeConfig{cfg.Lavalink.Node()}, nil)
	defer client.Close()

	results := make([]nodeResult, 0, len(client.Nodes()))
	for _, node := range client.Nodes() {
		info, err := node.Info(ctx)
		results = append(results, nodeResult{name: node.Name(), info: info, err: err})
	}
	renderNodes(cmd.OutOrStdout(), results)

	failed := lo.CountBy(results, func(r nodeResult) bool { return r.err != nil })
	if failed > 0 {
		return fmt.Errorf("%d of %d nodes unreachable", failed, len(results))
	}
	return nil
}

type nodeResult struct {
	name string
	info lavalink.Info
	err  error
}

func renderNodes(out io.Writer, results []nodeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Node", "Version", "Sources"})

	for _, r := range results {
		if r.err != nil {
			t.AppendRow(table.Row{r.name, "unreachable", r.err.Error()})
			continue
		}
		t.AppendRow(table.Row{r.name, r.info.Version.Semver, strings.Join(r.info.SourceManagers, ", ")})
	}
	t.Render()
}

func printHistory(cfg *config.Config, guildID string, cmd *cobra.Command) error {
	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	records, err := store.FetchCommandHistory(guildID)
	if err != nil {
		return err
	}
	renderHistory(cmd.OutOrStdout(), records)
	return nil
}

func renderHistory(out io.Writer, records []storage.CommandHistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "no commands recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "User", "Channel", "Command"})

	for _, r := range records {
		t.AppendRow(table.Row{
			r.Datetime.Local().Format(time.DateTime),
			r.Username,
			"#" + r.ChannelName,
			strings.TrimSpace("/" + r.Command + " " + r.Param),
		})
	}
	t.Render()
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "unknown"
	}
	return bi.Main.Version
}
