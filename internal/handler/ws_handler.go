package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"sociogram/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsControl is the frame clients send to manage their subscriptions on the
// multiplexed socket.
type wsControl struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Topic  string `json:"topic"`
}

// wsClient is one websocket connection multiplexing any number of topic
// subscriptions for a single user.
type wsClient struct {
	id     uuid.UUID
	userID uint
	conn   *websocket.Conn
	hub    *hub.Hub

	send chan []byte
	done chan struct{}

	mu   sync.Mutex
	subs map[string]*hub.Subscription
}

// ServeWS godoc
// @Summary      Multiplexed subscription socket
// @Description  Upgrades to a websocket on which the client sends {"action":"subscribe","topic":...} and {"action":"unsubscribe","topic":...} frames and receives event envelopes for every subscribed topic. Disconnecting detaches all subscriptions; there is no replay on reconnect.
// @Tags         subscriptions
// @Security     BearerAuth
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Router       /ws [get]
func (h *SubscriptionHandler) ServeWS(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		id:     uuid.New(),
		userID: viewerID.(uint),
		conn:   conn,
		hub:    h.hub,
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
		subs:   make(map[string]*hub.Subscription),
	}

	go client.writePump()
	client.readPump()
}

func (cl *wsClient) readPump() {
	defer cl.teardown()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: client %s read error: %v", cl.id, err)
			}
			return
		}

		var ctrl wsControl
		if err := json.Unmarshal(message, &ctrl); err != nil {
			cl.sendError("malformed control frame")
			continue
		}

		switch ctrl.Action {
		case "subscribe":
			cl.subscribe(ctrl.Topic)
		case "unsubscribe":
			cl.unsubscribe(ctrl.Topic)
		default:
			cl.sendError("unknown action")
		}
	}
}

func (cl *wsClient) subscribe(topic string) {
	pred, err := hub.PredicateFor(topic, cl.userID)
	if err != nil {
		cl.sendError("unknown topic")
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, ok := cl.subs[topic]; ok {
		return // already attached
	}

	sub := cl.hub.Subscribe(topic, pred)
	cl.subs[topic] = sub
	go cl.forward(sub)
}

func (cl *wsClient) unsubscribe(topic string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if sub, ok := cl.subs[topic]; ok {
		sub.Close()
		delete(cl.subs, topic)
	}
}

// forward pumps one subscription's envelopes onto the shared send channel.
// It exits when the subscription or the client closes.
func (cl *wsClient) forward(sub *hub.Subscription) {
	for env := range sub.C() {
		data, err := json.Marshal(env)
		if err != nil {
			log.Printf("ws: marshal envelope: %v", err)
			continue
		}
		select {
		case cl.send <- data:
		case <-cl.done:
			return
		default:
			// Client is too slow; drop this frame for it.
		}
	}
}

func (cl *wsClient) sendError(msg string) {
	data, _ := json.Marshal(gin.H{"error": msg})
	select {
	case cl.send <- data:
	default:
	}
}

// teardown synchronously detaches every subscription so no further delivery
// is attempted for a dead consumer, then stops the write pump.
func (cl *wsClient) teardown() {
	cl.mu.Lock()
	for topic, sub := range cl.subs {
		sub.Close()
		delete(cl.subs, topic)
	}
	cl.mu.Unlock()

	close(cl.done)
	_ = cl.conn.Close()
}

func (cl *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case message := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cl.done:
			return
		}
	}
}
