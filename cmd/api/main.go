package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"measurements-server/cmd/api/wire"
	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/httpserver"
	"measurements-server/internal/infra/node"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.LoadConfig()
	nodeInfo := node.GetNodeInfo()
	setUpLogging(cfg.General, nodeInfo)
	slog.Info("measurements server is initializing", slog.String("hostname", nodeInfo.Hostname))
	slog.Debug("config loaded", "data", cfg)

	shutdownOTel := startOTel()
	broker := async.NewLocalBroker()

	graph, closeGraph, err := wire.InitializeRecordingGraph(cfg, broker)
	if err != nil {
		panic(err)
	}
	slog.Info("recording graph ready",
		slog.Int("measurements", len(graph.Suppliers.All())),
		slog.Int("recorders", len(graph.Recorders.All())))

	httpServer := httpserver.NewServer(cfg.HTTP,
		handleWireInjector(wire.InitializeRecordingController(graph)).(httpserver.Controller),
		handleWireInjector(wire.InitializeMeasurementStreamController(graph, broker)).(httpserver.Controller),
	)
	supervisor := handleWireInjector(wire.InitializeRecorderSupervisor(graph)).(async.Worker)

	appCtx, cancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(1)
	go supervisor.Run(appCtx, workers.Done)

	go httpServer.Run()
	slog.Info("http server listening", slog.Int("port", cfg.HTTP.Port))

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	sig := <-signals
	slog.Info("shutting down", slog.String("signal", sig.String()))

	httpServer.Shutdown()
	cancel()
	workers.Wait()
	closeGraph()
	broker.Stop()
	if err := shutdownOTel(context.Background()); err != nil {
		slog.Warn("shutting down otel providers", slog.Any("error", err))
	}

	slog.Info("good bye!!!")
}

func setUpLogging(cfg config.GeneralConfig, nodeInfo *node.Node) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       logLevels[cfg.LogLevel],
		ReplaceAttr: baseNameSource,
	}).WithAttrs([]slog.Attr{
		slog.String("version", nodeInfo.Version),
		slog.String("node_id", nodeInfo.ID),
	})
	slog.SetDefault(slog.New(handler))
}

func baseNameSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if source, ok := a.Value.Any().(*slog.Source); ok {
		source.File = filepath.Base(source.File)
	}
	return a
}

func handleWireInjector(value any, err error) any {
	if err != nil {
		panic(err)
	}

	return value
}
