package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHub manages WebSocket connections
type WebSocketHub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages from clients
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Market subscriptions
	marketSubscriptions map[string]map[*Client]bool

	// Region subscriptions
	regionSubscriptions map[string]map[*Client]bool

	// Tick report subscriptions
	tickSubscriptions map[*Client]bool

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// Client represents a WebSocket client
type Client struct {
	hub *WebSocketHub

	// WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Client ID
	id string

	// Subscriptions
	subscriptions map[string]bool

	// Last seen timestamp
	lastSeen time.Time
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Message types
const (
	MessageTypeSubscribe    = "subscribe"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
	MessageTypeMarketUpdate = "market_update"
	MessageTypeRegionUpdate = "region_update"
	MessageTypeTickReport   = "tick_report"
	MessageTypeEconomyEvent = "economy_event"
)

// Channel types
const (
	ChannelMarket = "economy.market"
	ChannelRegion = "economy.region"
	ChannelTicks  = "economy.ticks"
)

// WebSocket connection settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *WebSocketHub {
	return &WebSocketHub{
		clients:             make(map[*Client]bool),
		broadcast:           make(chan []byte),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		marketSubscriptions: make(map[string]map[*Client]bool),
		regionSubscriptions: make(map[string]map[*Client]bool),
		tickSubscriptions:   make(map[*Client]bool),
	}
}

// Run starts the WebSocket hub
func (h *WebSocketHub) Run(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		case <-ticker.C:
			h.pingClients()
		}
	}
}

// registerClient registers a new client
func (h *WebSocketHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	logrus.Infof("WebSocket client registered: %s", client.id)

	// Send welcome message
	welcome := Message{
		Type:      "welcome",
		Data:      map[string]interface{}{"client_id": client.id},
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(welcome); err == nil {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// unregisterClient unregisters a client
func (h *WebSocketHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for market, clients := range h.marketSubscriptions {
			if _, exists := clients[client]; exists {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.marketSubscriptions, market)
				}
			}
		}

		for region, clients := range h.regionSubscriptions {
			if _, exists := clients[client]; exists {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.regionSubscriptions, region)
				}
			}
		}

		delete(h.tickSubscriptions, client)

		logrus.Infof("WebSocket client unregistered: %s", client.id)
	}
}

// broadcastMessage broadcasts a message to all clients
func (h *WebSocketHub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// pingClients sends ping messages to all clients
func (h *WebSocketHub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ping := Message{
		Type:      MessageTypePing,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(ping); err == nil {
		for client := range h.clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(h.clients, client)
			}
		}
	}
}

// SubscribeToMarket subscribes a client to a market's updates
func (h *WebSocketHub) SubscribeToMarket(client *Client, marketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.marketSubscriptions[marketID] == nil {
		h.marketSubscriptions[marketID] = make(map[*Client]bool)
	}
	h.marketSubscriptions[marketID][client] = true
	client.subscriptions[fmt.Sprintf("%s.%s", ChannelMarket, marketID)] = true

	logrus.Infof("Client %s subscribed to market %s", client.id, marketID)
}

// UnsubscribeFromMarket unsubscribes a client from a market's updates
func (h *WebSocketHub) UnsubscribeFromMarket(client *Client, marketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.marketSubscriptions[marketID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.marketSubscriptions, marketID)
		}
	}
	delete(client.subscriptions, fmt.Sprintf("%s.%s", ChannelMarket, marketID))

	logrus.Infof("Client %s unsubscribed from market %s", client.id, marketID)
}

// SubscribeToRegion subscribes a client to a region's economy events
func (h *WebSocketHub) SubscribeToRegion(client *Client, regionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.regionSubscriptions[regionID] == nil {
		h.regionSubscriptions[regionID] = make(map[*Client]bool)
	}
	h.regionSubscriptions[regionID][client] = true
	client.subscriptions[fmt.Sprintf("%s.%s", ChannelRegion, regionID)] = true

	logrus.Infof("Client %s subscribed to region %s", client.id, regionID)
}

// UnsubscribeFromRegion unsubscribes a client from a region's economy events
func (h *WebSocketHub) UnsubscribeFromRegion(client *Client, regionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.regionSubscriptions[regionID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.regionSubscriptions, regionID)
		}
	}
	delete(client.subscriptions, fmt.Sprintf("%s.%s", ChannelRegion, regionID))

	logrus.Infof("Client %s unsubscribed from region %s", client.id, regionID)
}

// SubscribeToTicks subscribes a client to tick reports
func (h *WebSocketHub) SubscribeToTicks(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tickSubscriptions[client] = true
	client.subscriptions[ChannelTicks] = true

	logrus.Infof("Client %s subscribed to tick reports", client.id)
}

// BroadcastMarketUpdate broadcasts market state changes to subscribed clients
func (h *WebSocketHub) BroadcastMarketUpdate(marketID string, update interface{}) {
	h.mu.RLock()
	clients := h.marketSubscriptions[marketID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message := Message{
		Type:      MessageTypeMarketUpdate,
		Channel:   fmt.Sprintf("%s.%s", ChannelMarket, marketID),
		Data:      update,
		Timestamp: time.Now().Unix(),
	}

	h.sendToClients(clients, message)
}

// BroadcastRegionUpdate broadcasts economy events scoped to a region
func (h *WebSocketHub) BroadcastRegionUpdate(regionID string, update interface{}) {
	h.mu.RLock()
	clients := h.regionSubscriptions[regionID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message := Message{
		Type:      MessageTypeRegionUpdate,
		Channel:   fmt.Sprintf("%s.%s", ChannelRegion, regionID),
		Data:      update,
		Timestamp: time.Now().Unix(),
	}

	h.sendToClients(clients, message)
}

// BroadcastTickReport broadcasts a tick report to subscribed clients
func (h *WebSocketHub) BroadcastTickReport(report interface{}) {
	h.mu.RLock()
	clients := h.tickSubscriptions
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message := Message{
		Type:      MessageTypeTickReport,
		Channel:   ChannelTicks,
		Data:      report,
		Timestamp: time.Now().Unix(),
	}

	h.sendToClients(clients, message)
}

func (h *WebSocketHub) sendToClients(clients map[*Client]bool, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Error("WebSocket upgrade failed:", err)
		return
	}

	// Create client
	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            fmt.Sprintf("%d", time.Now().UnixNano()),
		subscriptions: make(map[string]bool),
		lastSeen:      time.Now(),
	}

	// Register client
	h.register <- client

	// Start goroutines
	go client.writePump()
	go client.readPump()
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastSeen = time.Now()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump handles writing messages to the WebSocket connection
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// handleMessage handles incoming messages from clients
func (c *Client) handleMessage(message []byte) {
	var req SubscriptionRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch req.Type {
	case MessageTypeSubscribe:
		c.handleSubscribe(req)
	case MessageTypeUnsubscribe:
		c.handleUnsubscribe(req)
	case MessageTypePong:
		c.lastSeen = time.Now()
	default:
		c.sendError("Unknown message type")
	}
}

// handleSubscribe handles subscription requests
func (c *Client) handleSubscribe(req SubscriptionRequest) {
	switch {
	case req.Channel == ChannelTicks:
		c.hub.SubscribeToTicks(c)
	case strings.HasPrefix(req.Channel, ChannelMarket+"."):
		marketID := strings.TrimPrefix(req.Channel, ChannelMarket+".")
		c.hub.SubscribeToMarket(c, marketID)
	case strings.HasPrefix(req.Channel, ChannelRegion+"."):
		regionID := strings.TrimPrefix(req.Channel, ChannelRegion+".")
		c.hub.SubscribeToRegion(c, regionID)
	default:
		c.sendError("Invalid channel")
		return
	}

	// Send subscription confirmation
	response := Message{
		Type:      "subscribed",
		Channel:   req.Channel,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(response); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

// handleUnsubscribe handles unsubscription requests
func (c *Client) handleUnsubscribe(req SubscriptionRequest) {
	switch {
	case strings.HasPrefix(req.Channel, ChannelMarket+"."):
		marketID := strings.TrimPrefix(req.Channel, ChannelMarket+".")
		c.hub.UnsubscribeFromMarket(c, marketID)
	case strings.HasPrefix(req.Channel, ChannelRegion+"."):
		regionID := strings.TrimPrefix(req.Channel, ChannelRegion+".")
		c.hub.UnsubscribeFromRegion(c, regionID)
	case req.Channel == ChannelTicks:
		c.hub.mu.Lock()
		delete(c.hub.tickSubscriptions, c)
		delete(c.subscriptions, ChannelTicks)
		c.hub.mu.Unlock()
	}

	// Send unsubscription confirmation
	response := Message{
		Type:      "unsubscribed",
		Channel:   req.Channel,
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(response); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	errorMsg := Message{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().Unix(),
	}

	if data, err := json.Marshal(errorMsg); err == nil {
		select {
		case c.send <- data:
		default:
			close(c.send)
		}
	}
}

// GetStats returns WebSocket statistics
func (h *WebSocketHub) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"total_clients":        len(h.clients),
		"market_subscriptions": len(h.marketSubscriptions),
		"region_subscriptions": len(h.regionSubscriptions),
		"tick_subscribers":     len(h.tickSubscriptions),
	}
}
