package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/httpserver"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/httpapi/internal"
	"measurements-server/internal/recording/persistence"
	"measurements-server/internal/recording/usecases"

	"github.com/gorilla/websocket"
)

const (
	_pingPeriod   = 54 * time.Second
	_pongWait     = 60 * time.Second
	_writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewMeasurementStreamController(
	broker async.InternalBroker,
	suppliers *usecases.MeasurementSupplierCollection,
) *MeasurementStreamController {
	return &MeasurementStreamController{
		broker:    broker,
		suppliers: suppliers,
		errs:      NewErrorStatusMapper(),
	}
}

var _ httpserver.Controller = (*MeasurementStreamController)(nil)

// MeasurementStreamController pushes every measurement recorded for a
// supplier to the websocket clients watching it.
type MeasurementStreamController struct {
	broker    async.InternalBroker
	suppliers *usecases.MeasurementSupplierCollection
	errs      httpserver.ErrorStatusMapper
}

func (c *MeasurementStreamController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/measurements/{supplierId}", c.handleWebSocket())
}

func (c *MeasurementStreamController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID := httpserver.GetPathParam(r, "supplierId")
		if _, err := c.suppliers.FindByID(supplierID); err != nil {
			c.errs.ReplyWithError(w, r, err)
			return
		}

		topic := persistence.MeasurementTopic(supplierID)
		subscription, err := c.broker.Subscribe(topic)
		if err != nil {
			c.errs.ReplyWithError(w, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.Any("error", err))
			_ = c.broker.Unsubscribe(topic, subscription)
			return
		}

		slog.Info("measurement stream opened",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("supplier_id", supplierID))

		go c.stream(conn, topic, subscription)
	}
}

func (c *MeasurementStreamController) stream(conn *websocket.Conn, topic async.BrokerTopicName, subscription async.Subscription) {
	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(_pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.broker.Unsubscribe(topic, subscription)
		conn.Close()
		slog.Debug("measurement stream closed", slog.String("topic", string(topic)))
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(_writeTimeout))
				return
			}

			measurement, ok := msg.Value.(domain.Measurement)
			if !ok {
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(_writeTimeout))
			err := conn.WriteJSON(internal.StreamMessage{
				Type:        msg.Event,
				Measurement: internal.ToMeasurementResponse(measurement),
			})
			if err != nil {
				slog.Debug("writing to measurement stream", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(_writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed.
func readUntilClosed(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(_pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(_pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("measurement stream read error", slog.Any("error", err))
			}
			return
		}
	}
}
