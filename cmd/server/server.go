package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zucenko/mathkombat/config"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/narrative"
	"github.com/zucenko/mathkombat/persist"
	"github.com/zucenko/mathkombat/report"
	"github.com/zucenko/mathkombat/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalln(err)
	}
}

func newRootCommand() *cobra.Command {
	settings := config.FromEnv()
	cmd := &cobra.Command{
		Use:   "mathkombat",
		Short: "Serve the math kombat maze game over websockets",
		Long: `Serve the math kombat maze game over websockets.

Every setting can come from the environment (PORT, LOG_LEVEL, TIERS_FILE,
MAZE_FILE, HISTORY_FILE, NARRATIVE_URL, PERSIST_BACKEND, ...) and is
overridden by the matching flag.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&settings.Port, "port", "p", settings.Port, "http port")
	f.StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "logrus level")
	f.StringVar(&settings.TiersFile, "tiers", settings.TiersFile, "difficulty tiers yaml, embedded table when empty")
	f.StringVar(&settings.MazeFile, "maze", settings.MazeFile, "maze layout, embedded layout when empty")
	f.StringVar(&settings.HistoryFile, "history", settings.HistoryFile, "local match history file, memory only when empty")
	f.StringVar(&settings.NarrativeURL, "narrative-url", settings.NarrativeURL, "story and analysis service, offline texts when empty")
	f.StringVar(&settings.PersistBackend, "persist", settings.PersistBackend, "persistence backend: none, rest, s3 or sqs")
	f.StringVar(&settings.PersistURL, "persist-url", settings.PersistURL, "rest persistence endpoint")
	f.StringVar(&settings.AWSRegion, "aws-region", settings.AWSRegion, "aws region for s3 and sqs")
	f.StringVar(&settings.S3Bucket, "s3-bucket", settings.S3Bucket, "s3 bucket for match records")
	f.StringVar(&settings.SQSQueue, "sqs-queue", settings.SQSQueue, "sqs queue url for match records")
	_ = cmd.RegisterFlagCompletionFunc("persist", cobra.FixedCompletions([]string{"none", "rest", "s3", "sqs"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func run(parent context.Context, settings config.Settings) error {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	game, err := config.LoadFile(settings.TiersFile)
	if err != nil {
		return err
	}
	grid := maze.Default()
	if settings.MazeFile != "" {
		if grid, err = maze.Load(settings.MazeFile); err != nil {
			return err
		}
	}
	log.Debugf("maze %dx%d\n%s", grid.Cols, grid.Rows, grid)
	history, err := report.OpenHistory(settings.HistoryFile, report.HistorySize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := persist.New(ctx, settings)
	if err != nil {
		return err
	}
	var stories narrative.Service = narrative.Offline{}
	if settings.NarrativeURL != "" {
		stories = narrative.NewHTTPService(settings.NarrativeURL, settings.NarrativeKey)
	}
	reporter := report.NewReporter(history, store)
	reporter.Shutdown = ctx

	srv := Server{
		GameServer: server.NewGameServer(server.Deps{
			Grid:      grid,
			Game:      game,
			Narrative: stories,
			Reporter:  reporter,
		}),
	}
	go srv.GameServer.Loop(ctx)
	srv.routes()

	httpServer := &http.Server{Addr: ":" + settings.Port, Handler: srv.router}
	errs := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":    settings.Port,
			"persist": settings.PersistBackend,
			"maze":    fmt.Sprintf("%dx%d", grid.Cols, grid.Rows),
		}).Info("listening")
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	log.Info("waiting for pending saves")
	reporter.Wait()
	return nil
}
