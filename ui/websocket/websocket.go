package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-console/infrastructure/valkey"
	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	CodeInvalidate     = "INVALIDATE"
	CodeFetchWorkspace = "FETCH_WORKSPACES"
	CodeListWorkspace  = "LIST_WORKSPACES"
)

type BroadcastMessage struct {
	Code     string               `json:"code"`
	Message  string               `json:"message"`
	Query    *workspace.ListQuery `json:"query,omitempty"`
	Result   any                  `json:"result"`
	SenderID string               `json:"sender_id,omitempty"`
}

// peer serializes writes to one connection.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans invalidation notices out to every connected console. With a
// Valkey client the notices also reach consoles attached to other servers.
type Hub struct {
	clients    map[*peer]struct{}
	register   chan *peer
	unregister chan *peer
	broadcast  chan BroadcastMessage
	done       chan struct{}

	vkClient *valkey.Client
	channel  string
	localID  string
}

// NewHub builds a hub. vkClient may be nil.
func NewHub(vkClient *valkey.Client, serverID string) *Hub {
	h := &Hub{
		clients:    make(map[*peer]struct{}),
		register:   make(chan *peer),
		unregister: make(chan *peer),
		broadcast:  make(chan BroadcastMessage, 64),
		done:       make(chan struct{}),
		vkClient:   vkClient,
		localID:    serverID,
	}
	if vkClient != nil {
		h.channel = vkClient.Key("ws_broadcast")
	}
	return h
}

// Invalidate tells every console that pages depending on keys are stale. It
// never blocks the writer.
func (h *Hub) Invalidate(keys []string) {
	msg := BroadcastMessage{Code: CodeInvalidate, Message: "Workspace data changed", Result: keys}
	select {
	case h.broadcast <- msg:
	default:
		logrus.Warn("[WS] Broadcast queue full, dropping invalidation")
	}
}

func (h *Hub) broadcastToLocal(message BroadcastMessage) {
	marshalMessage, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}

	for p := range h.clients {
		if err := p.write(marshalMessage); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			h.closeConnection(p)
		}
	}
}

func (h *Hub) publishToValkey(ctx context.Context, message BroadcastMessage) {
	message.SenderID = h.localID

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	cmd := h.vkClient.Inner().B().Publish().Channel(h.channel).Message(string(data)).Build()
	if err := h.vkClient.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

// startValkeySubscriber relays notices from other servers into the local queue.
func (h *Hub) startValkeySubscriber(ctx context.Context, relay chan<- BroadcastMessage) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		err := h.vkClient.Inner().Receive(ctx, h.vkClient.Inner().B().Subscribe().Channel(h.channel).Build(), func(msg valkeylib.PubSubMessage) {
			var broadcastMsg BroadcastMessage
			if err := json.Unmarshal([]byte(msg.Message), &broadcastMsg); err != nil {
				return
			}
			// ignore what this instance published
			if broadcastMsg.SenderID == h.localID {
				return
			}
			select {
			case relay <- broadcastMsg:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}

func (h *Hub) closeConnection(p *peer) {
	p.mu.Lock()
	_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
	p.mu.Unlock()
	_ = p.conn.Close()
	delete(h.clients, p)
}

// Run owns the connection set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	remote := make(chan BroadcastMessage, 64)
	if h.vkClient != nil {
		h.startValkeySubscriber(ctx, remote)
	}

	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for p := range h.clients {
				h.closeConnection(p)
			}
			return

		case p := <-h.register:
			h.clients[p] = struct{}{}
			logrus.Debug("[WS] Connection registered")

		case p := <-h.unregister:
			delete(h.clients, p)
			logrus.Debug("[WS] Connection unregistered")

		case message := <-h.broadcast:
			h.broadcastToLocal(message)
			if h.vkClient != nil {
				h.publishToValkey(ctx, message)
			}

		case message := <-remote:
			h.broadcastToLocal(message)
		}
	}
}

// RegisterRoutes mounts /ws. Consoles may ask for a projected page with
// FETCH_WORKSPACES; the answer goes to the asking connection only.
func (h *Hub) RegisterRoutes(app fiber.Router, screens screen.Factory) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		p := &peer{conn: conn}
		select {
		case h.register <- p:
		case <-h.done:
			return
		}
		defer func() {
			select {
			case h.unregister <- p:
			case <-h.done:
			}
			_ = conn.Close()
		}()
		caller, _ := conn.Locals(middleware.CallerKey).(string)
		scr := screens.For(caller)

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] Unsupported message type: %d", messageType)
				continue
			}

			var messageData BroadcastMessage
			if err := json.Unmarshal(message, &messageData); err != nil {
				logrus.Debugf("[WS] Unmarshal error: %v", err)
				return
			}

			if messageData.Code == CodeFetchWorkspace {
				var query workspace.ListQuery
				if messageData.Query != nil {
					query = *messageData.Query
				}
				view := scr.Load(context.Background(), query)
				reply, _ := json.Marshal(BroadcastMessage{Code: CodeListWorkspace, Message: "Workspace view rendered", Result: view})
				if err := p.write(reply); err != nil {
					return
				}
			}
		}
	}))
}
