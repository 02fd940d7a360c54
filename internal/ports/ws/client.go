package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"thirteen/internal/session"
)

// sendBuffer bounds the per-client outbound queue. A client that cannot
// drain in time loses events rather than stalling the room.
const sendBuffer = 64

const writeTimeout = 5 * time.Second

// frame is the outbound wire envelope.
type frame struct {
	Kind    session.EventKind `json:"kind"`
	Payload any               `json:"payload,omitempty"`
}

// client is one websocket connection bound to a user. It implements
// session.Conn for event delivery.
type client struct {
	userID   string
	username string
	conn     *websocket.Conn
	log      zerolog.Logger

	send chan frame
	done chan struct{}

	mu   sync.Mutex
	room *session.Room
}

func newClient(userID, username string, conn *websocket.Conn, log zerolog.Logger) *client {
	return &client{
		userID:   userID,
		username: username,
		conn:     conn,
		log:      log.With().Str("user_id", userID).Logger(),
		send:     make(chan frame, sendBuffer),
		done:     make(chan struct{}),
	}
}

// Send queues an event for delivery, dropping when the client is backed up.
func (c *client) Send(ev session.Event) {
	select {
	case c.send <- frame{Kind: ev.Kind, Payload: ev.Payload}:
	case <-c.done:
	default:
		c.log.Warn().Str("kind", string(ev.Kind)).Msg("send buffer full, dropping event")
	}
}

func (c *client) setRoom(room *session.Room) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

func (c *client) currentRoom() *session.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// writePump drains the send queue onto the socket until the connection or
// the context ends.
func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case f := <-c.send:
			data, err := json.Marshal(f)
			if err != nil {
				c.log.Error().Err(err).Str("kind", string(f.Kind)).Msg("marshal outbound frame")
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
