package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notula-server/middleware"
	"notula-server/models"
)

// ErrNotConnected is returned when a message targets an owner with no open
// connection.
var ErrNotConnected = errors.New("owner has no open connection")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Submitter receives the events decoded from client frames.
type Submitter interface {
	Submit(ev models.Event) error
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// Hub tracks open connections per owner and implements the bot's outbound
// gateway over them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	auth       *middleware.Authenticator
	events     Submitter
	logger     *zap.Logger
	mu         sync.RWMutex
}

func NewHub(auth *middleware.Authenticator, events Submitter, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		auth:       auth,
		events:     events,
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client registered", zap.String("user", client.userID), zap.Int("clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			_, wasPresent := h.clients[client]
			if wasPresent {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			if wasPresent {
				h.logger.Info("client unregistered", zap.String("user", client.userID), zap.Int("clients", clientCount))
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Connected reports whether userID has at least one registered connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.userID == userID {
			return true
		}
	}
	return false
}

// SendToUser queues msg on every connection of userID and returns how many
// accepted it. Connections with a full buffer are dropped.
func (h *Hub) SendToUser(userID string, msg models.WSMessage) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	sentCount := 0
	var staleClients []*Client
	h.mu.RLock()
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
			sentCount++
		default:
			staleClients = append(staleClients, client)
		}
	}
	h.mu.RUnlock()

	if len(staleClients) > 0 {
		h.mu.Lock()
		for _, client := range staleClients {
			if _, ok := h.clients[client]; ok {
				h.logger.Warn("client buffer full, closing", zap.String("user", client.userID))
				close(client.send)
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}

	h.logger.Debug("sent to user",
		zap.String("type", msg.Type),
		zap.String("user", userID),
		zap.Int("connections", sentCount),
	)
	return sentCount, nil
}

func (h *Hub) deliver(userID string, msg models.WSMessage) error {
	n, err := h.SendToUser(userID, msg)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotConnected
	}
	return nil
}

func (h *Hub) SendText(ownerID, text string) error {
	return h.SendButtons(ownerID, text, nil)
}

func (h *Hub) SendButtons(ownerID, text string, rows [][]models.Button) error {
	return h.deliver(ownerID, models.WSMessage{
		Type: models.WSTypeBotMessage,
		Payload: models.BotMessagePayload{
			Text:    text,
			Markup:  "markdown",
			Buttons: rows,
		},
	})
}

func (h *Hub) AckButton(ownerID, callbackID, text string) error {
	return h.deliver(ownerID, models.WSMessage{
		Type:    models.WSTypeButtonAck,
		Payload: models.ButtonAckPayload{CallbackID: callbackID, Text: text},
	})
}

// token reads the JWT from the "token" query parameter or a bearer header.
func token(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if t, ok := middleware.BearerToken(r.Header.Get("Authorization")); ok {
		return t
	}
	return ""
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	if tok == "" {
		h.logger.Debug("connection rejected, no token", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(tok)
	if err != nil {
		h.logger.Info("connection rejected, invalid token", zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.String("user", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: claims.UserID,
	}

	welcome, _ := json.Marshal(models.WSMessage{
		Type:    models.WSTypeWelcome,
		Payload: map[string]string{"message": "connected"},
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		h.logger.Warn("welcome failed", zap.String("user", claims.UserID), zap.Error(err))
		conn.Close()
		return
	}

	h.register <- client
	go client.writePump()
	go client.readPump()
}

// inboundFrame is a client frame whose payload is decoded once the type is
// known.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeFrame turns a client frame into a dispatcher event.
func decodeFrame(userID string, data []byte) (models.Event, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return models.Event{}, err
	}

	switch frame.Type {
	case models.WSTypeText:
		var p models.TextPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return models.Event{}, err
		}
		return models.Event{Kind: models.EventText, OwnerID: userID, Text: p.Text}, nil
	case models.WSTypeButton:
		var p models.ButtonPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return models.Event{}, err
		}
		return models.Event{Kind: models.EventButton, OwnerID: userID, CallbackID: p.CallbackID, Data: p.Data}, nil
	}
	return models.Event{}, errors.New("unknown frame type " + frame.Type)
}

func (c *Client) readPump() {
	log := c.hub.logger.With(zap.String("user", c.userID))
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("unexpected close", zap.Error(err))
			}
			return
		}

		ev, err := decodeFrame(c.userID, message)
		if err != nil {
			log.Debug("ignoring frame", zap.Error(err))
			continue
		}
		if err := c.hub.events.Submit(ev); err != nil {
			log.Warn("event rejected", zap.Error(err))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("write failed", zap.String("user", c.userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
