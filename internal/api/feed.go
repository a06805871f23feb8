package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"camrent/internal/events"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed broadcasts domain events to websocket subscribers.
type Feed struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

func NewFeed(logger *zerolog.Logger) *Feed {
	return &Feed{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Subscribe forwards every event on the bus to connected clients.
func (f *Feed) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.All, func(e events.Event) error {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		f.Publish(data)
		return nil
	})
}

// Publish queues a message for broadcast; it is dropped when the feed is backed up.
func (f *Feed) Publish(msg []byte) {
	select {
	case f.broadcast <- msg:
	default:
		f.logger.Warn().Msg("feed backlog full, dropping event")
	}
}

// Clients returns the number of connected subscribers.
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Run owns the client set until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(f.done)
			f.mu.Lock()
			for c := range f.clients {
				close(c.send)
				delete(f.clients, c)
			}
			f.mu.Unlock()
			return
		case c := <-f.register:
			f.mu.Lock()
			f.clients[c] = struct{}{}
			f.mu.Unlock()
		case c := <-f.unregister:
			f.mu.Lock()
			if _, ok := f.clients[c]; ok {
				delete(f.clients, c)
				close(c.send)
			}
			f.mu.Unlock()
		case msg := <-f.broadcast:
			f.mu.Lock()
			for c := range f.clients {
				select {
				case c.send <- msg:
				default:
					// slow consumer
					close(c.send)
					delete(f.clients, c)
				}
			}
			f.mu.Unlock()
		}
	}
}

// GET /api/feed
func (f *Feed) Serve(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return nil
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case f.register <- c:
	case <-f.done:
		conn.Close()
		return nil
	}

	go f.writePump(c)
	f.readPump(c)
	return nil
}

// readPump discards client frames and unregisters on disconnect.
func (f *Feed) readPump(c *client) {
	defer func() {
		select {
		case f.unregister <- c:
		case <-f.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
