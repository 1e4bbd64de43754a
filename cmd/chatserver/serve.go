package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codeready-toolchain/agentrooms/pkg/api"
	"github.com/codeready-toolchain/agentrooms/pkg/cleanup"
	"github.com/codeready-toolchain/agentrooms/pkg/config"
	"github.com/codeready-toolchain/agentrooms/pkg/database"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/broadcast"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/db"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/llm"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/tool"
	"github.com/codeready-toolchain/agentrooms/pkg/interpreter"
	"github.com/codeready-toolchain/agentrooms/pkg/masking"
	"github.com/codeready-toolchain/agentrooms/pkg/notify"
	"github.com/codeready-toolchain/agentrooms/pkg/runtime"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
)

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat room server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address")
}

// newLogger builds the orchestration-logging *zap.Logger used by this
// command's startup/shutdown sequence. Library packages (pkg/config,
// pkg/masking, pkg/runtime, ...) keep logging through log/slog; zap is
// scoped to cmd/chatserver's own lifecycle narration, the same split the
// gRPC server entrypoint this is grounded on makes between its library
// logging and its own structured startup/shutdown trace.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if getEnv("GIN_MODE", "release") != "release" {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	logger.Info("starting chatserver", zap.String("config_dir", configDir))

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Debug("no .env file loaded", zap.String("path", envPath), zap.Error(err))
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	stats := cfg.Stats()
	logger.Info("configuration loaded", zap.Int("agents", stats.Agents))

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}
	dbCfg.Path = cfg.DataDir + "/chatserver.db"

	dbClient, err := database.NewClient(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database ready", zap.String("path", dbCfg.Path))

	store, err := db.NewStore(dbClient.DB())
	if err != nil {
		return fmt.Errorf("failed to prepare store statements: %w", err)
	}

	maskingSvc := masking.NewService(*cfg.Defaults.Masking)
	notifySvc := notify.NewService(cfg.Notify.Enabled, cfg.Notify.WebhookURL)

	ref := &runtimeRef{}

	dbExec := db.NewExecutor(store, ref)

	llmExec := llm.NewExecutor(llm.Config{
		APIKey:  os.Getenv(cfg.LLM.APIKeyEnv),
		BaseURL: cfg.LLM.BaseURL,
	}, ref)

	toolCfg := tool.DefaultConfig()
	toolCfg.AllowedReferenceDomains = cfg.Reference.AllowedDomains
	if cfg.Reference.CacheTTL > 0 {
		toolCfg.ReferenceCacheTTL = cfg.Reference.CacheTTL
	}
	toolExec := tool.NewExecutor(toolCfg, store, ref, maskingSvc)

	broadcastExec := broadcast.NewExecutor(broadcast.DefaultConfig(), notifySvc)

	sweeper := cleanup.NewService(cleanup.Config{
		MessageTTL: cfg.Retention.MessageTTL,
		EventTTL:   cfg.Retention.EventTTL,
	}, store)

	rtCfg := runtime.DefaultConfig()
	rtCfg.TickInterval = cfg.Scheduler.TickInterval
	rtCfg.ReadyWorkers = cfg.Scheduler.ReadyWorkers
	rtCfg.Agent = interpreter.DefaultAgentDeps()
	rtCfg.Agent.MaxToolCalls = cfg.MaxToolCalls()
	rtCfg.Dispatcher = runtime.DispatcherConfig{
		PersistenceWorkers: cfg.Scheduler.PersistenceWorkers,
		LLMWorkers:         cfg.Scheduler.LLMWorkers,
		ToolWorkers:        cfg.Scheduler.ToolWorkers,
		BroadcastWorkers:   cfg.Scheduler.BroadcastWorkers,
	}
	rtCfg.SweepInterval = cfg.Retention.SweepInterval
	rtCfg.SweepCron = cfg.Retention.SweepCron

	rt := runtime.New(rtCfg, dbExec, llmExec, toolExec, broadcastExec, sweeper)
	ref.rt = rt

	rt.Start(ctx)
	logger.Info("runtime started")

	seedRoomsAndAgents(rt, cfg, logger)

	apiServer := api.NewServer(dbClient, broadcastExec, rt, cfg.AllowedWSOrigins)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpAddr))
		serveErr <- apiServer.Start(httpAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server exited", zap.Error(err))
		}
	case <-sigCh:
		logger.Info("shutdown signal received, shutting down gracefully (press Ctrl+C again to force)")
		go func() {
			<-sigCh
			logger.Warn("force shutdown requested")
			os.Exit(1)
		}()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", zap.Error(err))
	} else {
		logger.Info("http server stopped")
	}

	rt.Stop()
	logger.Info("runtime stopped")

	if err := dbClient.Close(); err != nil {
		logger.Warn("error closing database", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// seedRoomsAndAgents creates a default "general" room and registers every
// configured persona into it, via the same Director messages an operator's
// admin tooling would send at runtime (spec §4.4 "Director"). There is no
// separate bootstrap path in the interpreters: startup seeding and live
// room/agent management go through the identical CreateRoom/RegisterAgent/
// MoveAgentToRoom messages.
func seedRoomsAndAgents(rt *runtime.Runtime, cfg *config.Config, logger *zap.Logger) {
	const defaultRoomID = values.RoomID("general")

	rt.Send(values.DirectorAddress, interpreter.CreateRoom{
		Config: values.RoomConfig{ID: defaultRoomID, Name: "General", Description: "default room"},
	})

	for id := range cfg.AgentRegistry.GetAll() {
		agentCfg, err := cfg.ResolveAgent(id)
		if err != nil {
			logger.Warn("skipping persona with unresolvable config", zap.String("agent_id", id), zap.Error(err))
			continue
		}
		rt.Send(values.DirectorAddress, interpreter.RegisterAgent{Config: agentCfg})
		rt.Send(values.DirectorAddress, interpreter.MoveAgentToRoom{
			AgentID: agentCfg.ID,
			RoomID:  defaultRoomID,
			NowMS:   time.Now().UnixMilli(),
		})
	}

	logger.Info("seeded default room and personas", zap.Int("personas", len(cfg.AgentRegistry.GetAll())))
}
