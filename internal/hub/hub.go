package hub

import (
	"context"

	"github.com/DoyleJ11/raffle-slots/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// EnsureLobby returns the raffle's table, opening it on first use.
type EnsureLobby struct {
	RaffleID int64
	Reply    chan *lobby.Lobby
}

// RemoveLobby shuts a raffle's table down. With Lobby set it only removes
// that exact lobby, and only while it has no clients and no run in progress.
type RemoveLobby struct {
	RaffleID int64
	Lobby    *lobby.Lobby
}

type ShutdownHub struct{}

func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Factory opens a lobby for a raffle. ctx is the hub's context; idle belongs
// in the lobby's Config so the hub can reap it once everyone has left.
type Factory func(ctx context.Context, raffleID int64, idle func(*lobby.Lobby)) *lobby.Lobby

type Hub struct {
	inbox   chan HubMsg
	lobbies map[int64]*lobby.Lobby
	open    Factory
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, open Factory) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[int64]*lobby.Lobby),
		open:    open,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after ShutdownHub or when the parent context ends.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureLobby:
				if lb := h.live(msg.RaffleID); lb != nil {
					msg.Reply <- lb
					break
				}
				lb := h.open(h.ctx, msg.RaffleID, h.reap)
				h.lobbies[msg.RaffleID] = lb
				msg.Reply <- lb

			case RemoveLobby:
				lb := h.lobbies[msg.RaffleID]
				if lb == nil {
					break
				}
				if msg.Lobby != nil && (msg.Lobby != lb || !idle(lb)) {
					break
				}
				stop(lb)
				delete(h.lobbies, msg.RaffleID)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live drops lobbies that already shut down.
func (h *Hub) live(raffleID int64) *lobby.Lobby {
	lb := h.lobbies[raffleID]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, raffleID)
		return nil
	default:
		return lb
	}
}

// reap is the idle hook handed to every lobby.
func (h *Hub) reap(lb *lobby.Lobby) {
	select {
	case h.inbox <- RemoveLobby{RaffleID: lb.RaffleID(), Lobby: lb}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) shutdown() {
	for id, lb := range h.lobbies {
		stop(lb)
		delete(h.lobbies, id)
	}
	h.cancel()
}

// idle asks the lobby itself; a client may have joined since it reported.
func idle(lb *lobby.Lobby) bool {
	reply := make(chan lobby.View, 1)
	select {
	case lb.Inbox() <- lobby.GetState{Reply: reply}:
	case <-lb.Done():
		return true
	}
	select {
	case v := <-reply:
		return v.NumClients == 0 && !v.Running
	case <-lb.Done():
		return true
	}
}

func stop(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}
