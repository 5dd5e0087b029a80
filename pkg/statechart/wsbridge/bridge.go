package wsbridge

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ib-77/statechart/pkg/statechart"
	"github.com/ib-77/statechart/pkg/statechart/runner"
)

var (
	ErrEmptyEvent  = errors.New("event name is required")
	ErrBinaryFrame = errors.New("only text frames carry events")
)

type Option func(*bridge)

func WithLogger(logger *zap.Logger) Option {
	return func(b *bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithUpgrader replaces the default upgrader, for example to restrict
// origins or tune buffer sizes.
func WithUpgrader(u websocket.Upgrader) Option {
	return func(b *bridge) { b.upgrader = u }
}

// Message is the JSON form of an incoming event.
type Message struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// Reply acknowledges one frame.
type Reply struct {
	Event  string `json:"event,omitempty"`
	ID     string `json:"id,omitempty"`
	Posted bool   `json:"posted"`
	Error  string `json:"error,omitempty"`
}

type bridge struct {
	runner   *runner.Runner
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func Handler(r *runner.Runner, opts ...Option) http.Handler {
	b := &bridge{
		runner: r,
		logger: r.Chart().Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := b.upgrader.Upgrade(w, req, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.Close()

	logger := b.logger.With(zap.String("remote", req.RemoteAddr))
	logger.Info("websocket connected")

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			} else {
				logger.Info("websocket closed")
			}
			return
		}

		reply, stop := b.handle(req, kind, data)
		if reply.Error != "" {
			logger.Debug("event rejected", zap.String("event", reply.Event), zap.String("error", reply.Error))
		}
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
		if stop {
			return
		}
	}
}

// handle posts one frame; stop reports that the runner no longer accepts
// events.
func (b *bridge) handle(req *http.Request, kind int, data []byte) (Reply, bool) {
	if kind != websocket.TextMessage {
		return Reply{Error: ErrBinaryFrame.Error()}, false
	}

	ev, err := Decode(data)
	if err != nil {
		return Reply{Error: err.Error()}, false
	}

	reply := Reply{Event: ev.Name, ID: ev.Id().String()}
	if err := b.runner.Post(req.Context(), ev); err != nil {
		reply.Error = err.Error()
		return reply, errors.Is(err, runner.ErrClosed)
	}
	reply.Posted = true
	return reply, false
}

// Decode turns a frame into an event. Frames starting with '{' are JSON
// messages, anything else is a bare event name.
func Decode(data []byte) (*statechart.Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyEvent
	}
	if data[0] != '{' {
		return statechart.NewEvent(string(data), nil), nil
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "decode event message")
	}
	if msg.Name == "" {
		return nil, ErrEmptyEvent
	}
	return statechart.NewEvent(msg.Name, msg.Data), nil
}
