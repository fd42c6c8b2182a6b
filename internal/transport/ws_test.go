package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kreid06/pirate-game-4/internal/proto"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWebSocket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WebSocket Connection Suite")
}

var _ = Describe("WebSocket Connection Handler", Label("scope:integration", "loop:g5-adapter", "layer:server", "dep:ws", "b:ws-connection", "r:high"), func() {
	var testServer *httptest.Server
	var serverURL string

	BeforeEach(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			conn, err := UpgradeConnection(w, r)
			if err != nil {
				return
			}
			defer conn.Close()
		})

		testServer = httptest.NewServer(mux)
		serverURL = "ws" + testServer.URL[4:] + "/ws"
	})

	AfterEach(func() {
		if testServer != nil {
			testServer.Close()
		}
	})

	Describe("UpgradeConnection", func() {
		It("successfully upgrades HTTP connection to WebSocket", func() {
			dialer := websocket.Dialer{}
			conn, resp, err := dialer.Dial(serverURL, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusSwitchingProtocols))
			Expect(conn).NotTo(BeNil())

			conn.Close()
		})

		It("sets appropriate headers", func() {
			dialer := websocket.Dialer{}
			conn, resp, err := dialer.Dial(serverURL, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("Upgrade")).To(Equal("websocket"))
			Expect(resp.Header.Get("Connection")).To(ContainSubstring("Upgrade"))

			conn.Close()
		})
	})

	Describe("Connection ReadMessage/WriteMessage/Close", func() {
		var conn *websocket.Conn
		var clientConn *websocket.Conn

		BeforeEach(func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				var err error
				conn, err = UpgradeConnection(w, r)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
			})

			testServer = httptest.NewServer(mux)
			serverURL = "ws" + testServer.URL[4:] + "/ws"

			dialer := websocket.Dialer{}
			var err error
			clientConn, _, err = dialer.Dial(serverURL, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if conn != nil {
				conn.Close()
			}
			if clientConn != nil {
				clientConn.Close()
			}
		})

		It("reads JSON text messages correctly", func() {
			Eventually(func() bool { return conn != nil }).Should(BeTrue())

			testMessage := map[string]interface{}{"type": "ping"}
			Expect(clientConn.WriteJSON(testMessage)).To(Succeed())

			connection := NewConnection(conn)
			data, err := connection.ReadMessage()
			Expect(err).NotTo(HaveOccurred())

			var received map[string]interface{}
			Expect(json.Unmarshal(data, &received)).To(Succeed())
			Expect(received["type"]).To(Equal("ping"))
		})

		It("exposes the peer's remote address", func() {
			Eventually(func() bool { return conn != nil }).Should(BeTrue())

			connection := NewConnection(conn)
			Expect(connection.RemoteAddr()).NotTo(BeNil())
		})

		It("writes JSON text messages correctly", func() {
			Eventually(func() bool { return conn != nil }).Should(BeTrue())

			connection := NewConnection(conn)
			payload, _ := json.Marshal(map[string]interface{}{"type": "pong", "server_time": 42})
			Expect(connection.WriteMessage(payload)).To(Succeed())

			var received map[string]interface{}
			Expect(clientConn.ReadJSON(&received)).To(Succeed())
			Expect(received["type"]).To(Equal("pong"))
			Expect(received["server_time"]).To(Equal(float64(42)))
		})

		It("can be closed multiple times safely", func() {
			Eventually(func() bool { return conn != nil }).Should(BeTrue())

			connection := NewConnection(conn)
			Expect(connection.Close()).To(Succeed())
			Expect(connection.Close()).To(Succeed())
		})

		It("handles concurrent read/write operations", func() {
			Eventually(func() bool { return conn != nil }).Should(BeTrue())

			connection := NewConnection(conn)

			readDone := make(chan error, 1)
			go func() {
				_, err := connection.ReadMessage()
				readDone <- err
			}()

			Expect(clientConn.WriteJSON(map[string]interface{}{"type": "ping"})).To(Succeed())

			select {
			case err := <-readDone:
				Expect(err).NotTo(HaveOccurred())
			case <-time.After(1 * time.Second):
				Fail("read operation timed out")
			}
		})
	})
})

var _ = Describe("Message Parsing", Label("scope:unit", "loop:g5-adapter", "layer:server", "dep:ws", "b:message-routing", "r:high"), func() {
	Describe("ParseMessage", func() {
		It("parses a valid handshake message", func() {
			data := []byte(`{"type":"handshake","playerName":"Blackbeard","protocolVersion":1}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			hs, ok := msg.(*proto.HandshakeMessage)
			Expect(ok).To(BeTrue())
			Expect(hs.PlayerName).To(Equal("Blackbeard"))
			Expect(hs.ProtocolVersion).To(Equal(1))
		})

		It("parses a valid movement_state message", func() {
			data := []byte(`{"type":"movement_state","movement":{"x":0.5,"y":-0.5},"is_moving":true}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			ms, ok := msg.(*proto.MovementStateMessage)
			Expect(ok).To(BeTrue())
			Expect(ms.Movement.X).To(Equal(0.5))
			Expect(ms.IsMoving).To(BeTrue())
		})

		It("parses a valid rotation_update message", func() {
			data := []byte(`{"type":"rotation_update","rotation":1.0}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			ru, ok := msg.(*proto.RotationUpdateMessage)
			Expect(ok).To(BeTrue())
			Expect(ru.Rotation).To(Equal(1.0))
		})

		It("parses a valid action_event message", func() {
			data := []byte(`{"type":"action_event","action":"mount","target":3}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			ae, ok := msg.(*proto.ActionEventMessage)
			Expect(ok).To(BeTrue())
			Expect(ae.Action).To(Equal(proto.ActionMount))
			Expect(ae.Target).To(Equal(uint32(3)))
		})

		It("parses a valid ship_sail_control message", func() {
			data := []byte(`{"type":"ship_sail_control","desired_openness":50}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			_, ok := msg.(*proto.ShipSailControlMessage)
			Expect(ok).To(BeTrue())
		})

		It("parses a valid ship_rudder_control message", func() {
			data := []byte(`{"type":"ship_rudder_control","turning_left":true,"turning_right":false}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			rc, ok := msg.(*proto.ShipRudderControlMessage)
			Expect(ok).To(BeTrue())
			Expect(rc.TurningLeft).To(BeTrue())
		})

		It("parses a valid ship_sail_angle_control message", func() {
			data := []byte(`{"type":"ship_sail_angle_control","desired_angle":0.2}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			_, ok := msg.(*proto.ShipSailAngleControlMessage)
			Expect(ok).To(BeTrue())
		})

		It("parses a valid cannon_aim message", func() {
			data := []byte(`{"type":"cannon_aim","aim_angle":0.4}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			_, ok := msg.(*proto.CannonAimMessage)
			Expect(ok).To(BeTrue())
		})

		It("parses a valid cannon_fire message", func() {
			data := []byte(`{"type":"cannon_fire","fire_all":true}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			cf, ok := msg.(*proto.CannonFireMessage)
			Expect(ok).To(BeTrue())
			Expect(cf.FireAll).To(BeTrue())
		})

		It("parses a valid ping message", func() {
			data := []byte(`{"type":"ping"}`)
			msg, err := ParseMessage(data)

			Expect(err).NotTo(HaveOccurred())
			_, ok := msg.(*proto.PingMessage)
			Expect(ok).To(BeTrue())
		})

		It("returns an error for empty input", func() {
			_, err := ParseMessage([]byte(``))
			Expect(err).To(HaveOccurred())
		})

		It("returns an error for malformed JSON", func() {
			_, err := ParseMessage([]byte(`{"type":"ping"`))
			Expect(err).To(HaveOccurred())
		})

		It("returns an error for a missing type field", func() {
			_, err := ParseMessage([]byte(`{"foo":"bar"}`))
			Expect(err).To(HaveOccurred())
		})

		It("returns an error for an unknown message type", func() {
			_, err := ParseMessage([]byte(`{"type":"unknown_thing"}`))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown message type"))
		})

		It("rejects a movement_state whose vector exceeds the magnitude limit", func() {
			data := []byte(`{"type":"movement_state","movement":{"x":10,"y":10},"is_moving":true}`)
			_, err := ParseMessage(data)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an action_event with an unrecognized action name", func() {
			data := []byte(`{"type":"action_event","action":"teleport"}`)
			_, err := ParseMessage(data)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewErrorMessage", func() {
		It("marshals a message_ack carrying the given status", func() {
			data := NewErrorMessage(proto.AckInvalid)

			var ack proto.MessageAck
			Expect(json.Unmarshal(data, &ack)).To(Succeed())
			Expect(ack.Type).To(Equal(proto.TypeMessageAck))
			Expect(ack.Status).To(Equal(proto.AckInvalid))
		})
	})

	Describe("DefaultWorld", func() {
		It("seeds exactly one ship with a helm, a mast and two cannons", func() {
			world := DefaultWorld()

			Expect(world.Ships).To(HaveLen(1))
			Expect(world.Players).To(BeEmpty())

			ship := world.Ships[0]
			Expect(ship.Modules).To(HaveLen(4))
		})
	})
})
