package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kreid06/pirate-game-4/internal/observability"
	"github.com/kreid06/pirate-game-4/internal/proto"
	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

const (
	// ReadDeadline is the read deadline for WebSocket connections (60 seconds)
	ReadDeadline = 60 * time.Second
	// WriteDeadline is the write deadline for WebSocket connections (10 seconds)
	WriteDeadline = 10 * time.Second
	// PongWait is the time to wait for pong response (must be less than ReadDeadline)
	PongWait = 60 * time.Second
	// PingPeriod is how often to send ping messages (must be less than PongWait)
	PingPeriod = (PongWait * 9) / 10
)

var (
	// upgrader is the WebSocket upgrader used for HTTP to WebSocket upgrades
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// For now, allow all origins. In production, this should validate
			// the origin against a whitelist.
			return true
		},
	}
)

// Connection manages a WebSocket connection lifecycle.
// It provides methods for reading and writing messages, and graceful closure.
type Connection struct {
	conn      *websocket.Conn
	done      chan struct{}
	writeChan chan []byte
	startTime time.Time
}

// NewConnection creates a new Connection wrapper around a WebSocket connection.
func NewConnection(conn *websocket.Conn) *Connection {
	c := &Connection{
		conn:      conn,
		done:      make(chan struct{}),
		writeChan: make(chan []byte, 256),
		startTime: time.Now(),
	}

	// Set read deadline and pong handler
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	// Start write pump (handles all writes including pings)
	go c.writePump()

	return c
}

// GetStartTime returns the connection start time.
func (c *Connection) GetStartTime() time.Time {
	return c.startTime
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// UpgradeConnection upgrades an HTTP connection to a WebSocket connection.
// Returns the WebSocket connection or an error if the upgrade fails.
func UpgradeConnection(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// ReadMessage reads a JSON text message from the WebSocket connection.
// Returns the message bytes or an error if the read fails.
func (c *Connection) ReadMessage() ([]byte, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	// Only accept text messages (JSON)
	if messageType != websocket.TextMessage {
		return nil, websocket.ErrBadHandshake
	}

	// Record bytes in and message count
	if len(data) > 0 {
		if bytesCounter := observability.GetConnectionBytesCounter(); bytesCounter != nil {
			bytesCounter.WithLabelValues("in").Add(float64(len(data)))
		}
		if msgCounter := observability.GetMessagesCounter(); msgCounter != nil {
			msgCounter.WithLabelValues("in").Inc()
		}
	}

	return data, nil
}

// WriteMessage enqueues a JSON text message to be written to the WebSocket connection.
// Returns an error if the connection is closed or the message cannot be enqueued.
func (c *Connection) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection closed")
	case c.writeChan <- data:
		return nil
	}
}

// Close gracefully closes the WebSocket connection.
// It can be called multiple times safely.
// Closing c.done signals writePump to exit, then the underlying connection is closed.
func (c *Connection) Close() error {
	select {
	case <-c.done:
		// Already closed
		return nil
	default:
		close(c.done)
		// writeChan is left open: WriteMessage selects on c.done and
		// writeChan together, so closing writeChan here could make a
		// concurrent send panic.
		return c.conn.Close()
	}
}

// writePump handles all writes to the WebSocket connection.
// It processes messages from writeChan and sends periodic ping messages.
// This ensures only one goroutine writes to the connection, preventing concurrent write panics.
// Messages are prioritized over pings, and pending messages are batched for efficiency.
func (c *Connection) writePump() {
	pingTicker := time.NewTicker(PingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data, ok := <-c.writeChan:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-pingTicker.C:
			// Before sending a ping, check if there is a message ready.
			select {
			case data, ok := <-c.writeChan:
				if !ok {
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}

				if err := c.writeMessage(websocket.TextMessage, data); err != nil {
					return
				}
			default:
				// Truly idle: safe to ping
				if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}

		// Drain pending messages after any write for efficiency
	drain:
		for {
			select {
			case <-c.done:
				return
			case data, ok := <-c.writeChan:
				if !ok {
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}

				if err := c.writeMessage(websocket.TextMessage, data); err != nil {
					return
				}
			default:
				break drain
			}
		}
	}
}

// writeMessage writes a message to the WebSocket connection and records metrics.
func (c *Connection) writeMessage(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(WriteDeadline))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return err
	}

	if messageType == websocket.TextMessage && len(data) > 0 {
		c.recordMetrics(data)
	}

	return nil
}

// recordMetrics records bytes and message count metrics for outgoing messages.
func (c *Connection) recordMetrics(data []byte) {
	if len(data) > 0 {
		if bytesCounter := observability.GetConnectionBytesCounter(); bytesCounter != nil {
			bytesCounter.WithLabelValues("out").Add(float64(len(data)))
		}
		if msgCounter := observability.GetMessagesCounter(); msgCounter != nil {
			msgCounter.WithLabelValues("out").Inc()
		}
	}
}

// ParseMessage parses a JSON message and returns a typed message, looked up
// by its "type" discriminator across the nine hybrid-protocol wire kinds
// plus ping/handshake. Returns an error if the message is malformed,
// invalid, or of unknown type.
func ParseMessage(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("missing message type field 'type'")
	}

	switch head.Type {
	case proto.TypeHandshake:
		var msg proto.HandshakeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse handshake: %w", err)
		}
		if err := proto.ValidateHandshakeMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid handshake: %w", err)
		}
		return &msg, nil

	case proto.TypeMovementState:
		var msg proto.MovementStateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse movement_state: %w", err)
		}
		if err := proto.ValidateMovementStateMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid movement_state: %w", err)
		}
		return &msg, nil

	case proto.TypeRotationUpdate:
		var msg proto.RotationUpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse rotation_update: %w", err)
		}
		if err := proto.ValidateRotationUpdateMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid rotation_update: %w", err)
		}
		return &msg, nil

	case proto.TypeActionEvent:
		var msg proto.ActionEventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse action_event: %w", err)
		}
		if err := proto.ValidateActionEventMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid action_event: %w", err)
		}
		return &msg, nil

	case proto.TypeShipSailControl:
		var msg proto.ShipSailControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse ship_sail_control: %w", err)
		}
		if err := proto.ValidateShipSailControlMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid ship_sail_control: %w", err)
		}
		return &msg, nil

	case proto.TypeShipRudderControl:
		var msg proto.ShipRudderControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse ship_rudder_control: %w", err)
		}
		if err := proto.ValidateShipRudderControlMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid ship_rudder_control: %w", err)
		}
		return &msg, nil

	case proto.TypeShipSailAngle:
		var msg proto.ShipSailAngleControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse ship_sail_angle_control: %w", err)
		}
		if err := proto.ValidateShipSailAngleControlMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid ship_sail_angle_control: %w", err)
		}
		return &msg, nil

	case proto.TypeCannonAim:
		var msg proto.CannonAimMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse cannon_aim: %w", err)
		}
		if err := proto.ValidateCannonAimMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid cannon_aim: %w", err)
		}
		return &msg, nil

	case proto.TypeCannonFire:
		var msg proto.CannonFireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse cannon_fire: %w", err)
		}
		if err := proto.ValidateCannonFireMessage(&msg); err != nil {
			return nil, fmt.Errorf("invalid cannon_fire: %w", err)
		}
		return &msg, nil

	case proto.TypePing:
		var msg proto.PingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse ping: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unknown message type: %s", head.Type)
	}
}

// NewErrorMessage creates a JSON message_ack response carrying an error
// status.
func NewErrorMessage(status string) []byte {
	data, _ := json.Marshal(proto.MessageAck{Type: proto.TypeMessageAck, Status: status})
	return data
}

// DefaultWorld creates the starting world for a freshly launched server: a
// single brigantine at the origin, rigged with a helm, a mast and a
// cannon, and no players — players are added to the world as they
// handshake in.
func DefaultWorld() entities.World {
	world := entities.NewWorld()

	ship := entities.NewBrigantine(1, entities.NewVec2(0, 0), 0)
	ship.AddModule(entities.NewModule(1, entities.ModuleHelm, entities.NewVec2(350, 0), 0))
	ship.AddModule(entities.NewModule(2, entities.ModuleMast, entities.NewVec2(0, 0), 0))
	ship.AddModule(entities.NewModule(3, entities.ModuleCannon, entities.NewVec2(-200, 80), 0))
	ship.AddModule(entities.NewModule(4, entities.ModuleCannon, entities.NewVec2(-200, -80), 0))
	world.AddShip(ship)

	return world
}
