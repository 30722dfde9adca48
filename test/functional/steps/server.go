package steps

import (
	"fmt"
	"net/http/httptest"
	"strings"

	"measurements-server/cmd/api/wire"
	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/httpserver"

	"github.com/spf13/viper"
)

// serverConfig mirrors config/server.yaml with a faster periodic recorder.
const serverConfig = `
general:
  log_level: error
sensors:
  - id: temp1
    type: simulated
    config:
      keys:
        celsius:
          min: 18
          max: 26
measurements:
  - id: s1
    sensor-id: temp1
    sensor-key: celsius
recorders:
  - id: r1
    measurement-id: s1
    mode: manual
  - id: r2
    measurement-id: s1
    mode: periodic
    config:
      interval: 100ms
`

type localServer struct {
	server *httptest.Server
	broker *async.LocalBroker
	stop   func()
}

func startLocalServer() (*localServer, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(serverConfig)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	broker := async.NewLocalBroker()
	graph, closeGraph, err := wire.InitializeRecordingGraph(cfg, broker)
	if err != nil {
		return nil, fmt.Errorf("wiring recording graph: %w", err)
	}
	recordingController, err := wire.InitializeRecordingController(graph)
	if err != nil {
		closeGraph()
		return nil, err
	}
	streamController, err := wire.InitializeMeasurementStreamController(graph, broker)
	if err != nil {
		closeGraph()
		return nil, err
	}
	supervisor, err := wire.InitializeRecorderSupervisor(graph)
	if err != nil {
		closeGraph()
		return nil, err
	}

	server := httptest.NewServer(httpserver.NewServer(cfg.HTTP, recordingController, streamController).Handler())

	return &localServer{
		server: server,
		broker: broker,
		stop: func() {
			supervisor.Shutdown()
			server.Close()
			closeGraph()
			broker.Stop()
		},
	}, nil
}
