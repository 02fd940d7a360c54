// Package ws exposes the session engine over websockets. Each connection
// is one player; inbound frames are JSON commands, outbound frames are
// session events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"thirteen/internal/config"
	"thirteen/internal/domain"
	"thirteen/internal/session"
	"thirteen/internal/tournament"
)

// Gateway accepts websocket connections and routes their commands into
// the room registry, disconnect supervisor and tournament manager.
type Gateway struct {
	cfg         config.Config
	rooms       *session.Registry
	supervisor  *session.Supervisor
	tournaments *tournament.Manager
	log         zerolog.Logger
}

func NewGateway(cfg config.Config, rooms *session.Registry, supervisor *session.Supervisor, tournaments *tournament.Manager, log zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:         cfg,
		rooms:       rooms,
		supervisor:  supervisor,
		tournaments: tournaments,
		log:         log,
	}
}

var errMalformedCommand = errors.New("malformed command")

// command is the inbound wire envelope. Fields beyond Type are read per
// command; unused ones stay zero.
type command struct {
	Type   string        `json:"type"`
	RoomID string        `json:"roomId"`
	BuyIn  int64         `json:"buyIn"`
	Ready  bool          `json:"ready"`
	Cards  []domain.Card `json:"cards"`
	Text   string        `json:"text"`
	TierID string        `json:"tierId"`
}

// ServeHTTP upgrades the request and runs the connection until it closes.
// Identity comes from query parameters; a real deployment fronts this with
// an authenticating proxy.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	username := r.URL.Query().Get("username")
	if userID == "" || username == "" {
		http.Error(w, "user_id and username are required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	c := newClient(userID, username, conn, g.log)
	defer c.close()
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	go c.writePump(ctx)

	// A user with an in-flight game is routed straight back to it.
	if room, err := g.supervisor.Reconnect(ctx, userID, c); err == nil {
		c.setRoom(room)
	} else if !errors.Is(err, session.ErrNoActiveGame) {
		g.log.Error().Err(err).Str("user_id", userID).Msg("reconnect lookup failed")
	}

	g.readLoop(ctx, c)
	g.dropped(c)
}

func (g *Gateway) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.Send(session.NewError(c.userID, errMalformedCommand))
			continue
		}
		g.dispatch(ctx, c, cmd)
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *client, cmd command) {
	switch cmd.Type {
	case "join_room":
		room, err := g.rooms.JoinRoom(ctx, cmd.RoomID, c.userID, c.username, cmd.BuyIn, c)
		if err != nil {
			c.Send(session.NewError(c.userID, err))
			return
		}
		c.setRoom(room)

	case "leave":
		// Post-start leaving is a disconnect: the seat stays behind the
		// grace timer so the room can settle as abandoned when everyone
		// walks out.
		if room := c.currentRoom(); room != nil {
			g.supervisor.Disconnected(room, c.userID)
			c.setRoom(nil)
		}

	case "set_ready":
		if room := c.currentRoom(); room != nil {
			if err := room.SetReady(c.userID, cmd.Ready); err != nil {
				c.Send(session.NewError(c.userID, err))
			}
		}

	case "move":
		if room := c.currentRoom(); room != nil {
			if err := room.Move(c.userID, cmd.Cards); err != nil {
				c.Send(session.NewError(c.userID, err))
			}
		}

	case "pass":
		if room := c.currentRoom(); room != nil {
			if err := room.Pass(c.userID); err != nil {
				c.Send(session.NewError(c.userID, err))
			}
		}

	case "chat":
		if room := c.currentRoom(); room != nil {
			room.Chat(c.userID, cmd.Text)
		}

	case "register_tournament":
		tier, ok := g.cfg.TierByID(cmd.TierID)
		if !ok {
			c.Send(session.NewError(c.userID, tournament.ErrUnknownTier))
			return
		}
		if _, err := g.tournaments.Register(ctx, tier, c.userID, c.username); err != nil {
			c.Send(session.NewError(c.userID, err))
		}

	default:
		g.log.Debug().Str("type", cmd.Type).Str("user_id", c.userID).Msg("unknown command")
	}
}

// dropped runs after the read loop ends. Players in a running game enter
// the grace window; everyone else just leaves their seat.
func (g *Gateway) dropped(c *client) {
	if room := c.currentRoom(); room != nil {
		g.supervisor.Disconnected(room, c.userID)
	}
}
