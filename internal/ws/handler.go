package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/raffle-slots/internal/hub"
	"github.com/DoyleJ11/raffle-slots/internal/lobby"
	"github.com/DoyleJ11/raffle-slots/internal/lottery"
	"github.com/DoyleJ11/raffle-slots/internal/slot"
	"github.com/DoyleJ11/raffle-slots/internal/store"
	"github.com/DoyleJ11/raffle-slots/internal/types"
)

// Raffles tells the handler whether a raffle exists before a table is opened.
type Raffles interface {
	GetRaffle(ctx context.Context, id int64) (*store.Raffle, error)
}

type Options struct {
	OriginPatterns []string
	ReadTimeout    time.Duration // zero means 30s
	Log            *zap.Logger
}

func Handler(h *hub.Hub, raffles Raffles, opts Options) http.HandlerFunc {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		raffleID, err := strconv.ParseInt(r.URL.Query().Get("raffle"), 10, 64)
		if err != nil || raffleID <= 0 {
			http.Error(w, "missing or bad raffle id", http.StatusBadRequest)
			return
		}
		if _, err := raffles.GetRaffle(r.Context(), raffleID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "raffle not found", http.StatusNotFound)
				return
			}
			opts.Log.Error("load raffle", zap.Int64("raffle_id", raffleID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		clientID := uuid.NewString()
		log := opts.Log.With(zap.Int64("raffle_id", raffleID), zap.String("client_id", clientID))

		// A full spin produces well over a hundred frames.
		out := make(chan lobby.Snapshot, 256)
		lb, err := join(r.Context(), h, raffleID, lobby.Join{ClientID: clientID, Outbox: out})
		if err != nil {
			log.Debug("join table", zap.Error(err))
			http.Error(w, "table unavailable", http.StatusServiceUnavailable)
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		log.Debug("client joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				var snap lobby.Snapshot
				var ok bool
				select {
				case snap, ok = <-out:
				case <-lb.Done():
				case <-writeCtx.Done():
					return
				}
				if !ok {
					// The lobby dropped us or shut down.
					conn.Close(websocket.StatusTryAgainLater, "table closed")
					return
				}

				payload, _ := json.Marshal(serverMessage(snap))
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				err := conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					log.Debug("write snapshot", zap.Error(err))
					return
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			msg, ok := toLobbyMessage(clientID, cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			select {
			case lb.Inbox() <- msg:
			case <-lb.Done():
				return
			}
		}
	}
}

var errTableClosed = errors.New("table closed")

// join registers the client with the raffle's table. A table can be reaped
// between EnsureLobby and Join, so a closed one is retried a few times.
func join(ctx context.Context, h *hub.Hub, raffleID int64, msg lobby.Join) (*lobby.Lobby, error) {
	for attempt := 0; attempt < 3; attempt++ {
		reply := make(chan *lobby.Lobby, 1)
		select {
		case h.Inbox() <- hub.EnsureLobby{RaffleID: raffleID, Reply: reply}:
		case <-h.Done():
			return nil, errTableClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		var lb *lobby.Lobby
		select {
		case lb = <-reply:
		case <-h.Done():
			return nil, errTableClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if lb == nil {
			return nil, errTableClosed
		}

		select {
		case <-lb.Done():
			continue
		default:
		}
		select {
		case lb.Inbox() <- msg:
			return lb, nil
		case <-lb.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, errTableClosed
}

func serverMessage(snap lobby.Snapshot) types.ServerMessage {
	if snap.LanesOnly {
		lanes := snap.State.Lanes
		return types.ServerMessage{Type: "LaneFrame", Version: snap.Version, Lanes: &lanes}
	}
	return types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap.State}
}

func toLobbyMessage(clientID string, m types.ClientMessage) (lobby.FromClient, bool) {
	switch m.Type {
	case "Spin":
		return lobby.FromClient{ClientID: clientID, Cmd: lobby.CmdSpin}, true
	case "Repeat":
		return lobby.FromClient{ClientID: clientID, Cmd: lobby.CmdRepeat}, true
	case "SetMode":
		if _, err := lottery.ParseLevel(m.Level); err != nil {
			return lobby.FromClient{}, false
		}
		mode := slot.Mode{Elimination: m.Elimination, TwoOfThree: m.TwoOfThree, Level: m.Level}
		return lobby.FromClient{ClientID: clientID, Cmd: lobby.CmdSetMode, Mode: mode}, true
	default:
		return lobby.FromClient{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
