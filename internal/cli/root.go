// Package cli implements the neuroflow CLI commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neuroflow/internal/config"
	"neuroflow/internal/core"
	"neuroflow/internal/db"
	"neuroflow/internal/llm"
	"neuroflow/internal/logging"
	"neuroflow/internal/memory"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "neuroflow",
	Short: "Patient-intake conversational agent",
	Long:  "NeuroFlow converses with a patient, extracts structured clinical signal per turn, and emits a SOAP note when the interview completes.",
}

func init() {
	RootCmd.AddCommand(serveCmd, chatCmd)
}

// app bundles the wired components shared by the serve and chat commands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	gateway  llm.Gateway
	intake   *core.Intake
	repo     *db.Repository
	notifier *db.Notifier
}

// bootstrap loads config and wires the pipeline.  A missing credential or an
// unreachable backing store fails here, before any patient traffic.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	gateway, err := llm.NewOpenAIGateway(cfg.APIKey, log.Named("llm"),
		llm.WithModel(cfg.Model), llm.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, gateway: gateway}

	if cfg.DatabaseURL != "" {
		conn, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		repo := db.NewRepository(conn)
		if err := repo.Ping(ctx, cfg.RequestTimeout); err != nil {
			return nil, fmt.Errorf("pinging database: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		a.repo = repo
		a.notifier = db.NewNotifier(conn, cfg.DatabaseURL, log.Named("notify"))
	}

	store, err := a.memoryStore()
	if err != nil {
		return nil, err
	}
	notes := core.NewNoteTaker(gateway, cfg.OutputDir, log.Named("notes"))
	a.intake = core.NewIntake(gateway, store, notes, log.Named("intake"))
	return a, nil
}

// memoryStore selects the long-term memory backend from config.
func (a *app) memoryStore() (memory.Store, error) {
	switch a.cfg.MemoryBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		return memory.NewRedisStore(client, a.log.Named("memory")), nil
	case config.BackendPostgres:
		if a.repo == nil {
			return nil, fmt.Errorf("postgres memory backend requires NEUROFLOW_DATABASE_URL")
		}
		return a.repo, nil
	default:
		return memory.NewRemoteStore(a.gateway, a.log.Named("memory")), nil
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
