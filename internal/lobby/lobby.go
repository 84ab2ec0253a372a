package lobby

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/internal/slot"
	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

// MaxLogLines bounds the output panel every client receives.
const MaxLogLines = 200

type Msg interface{ isLobbyMsg() }

type Command string

const (
	CmdSpin    Command = "Spin"
	CmdRepeat  Command = "Repeat"
	CmdSetMode Command = "SetMode"
)

type FromClient struct {
	ClientID string
	Cmd      Command
	Mode     slot.Mode // SetMode only
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Messages posted by the controller through the lobby presenter.
type (
	laneSet struct {
		lane int
		text string
	}
	logAppended     struct{ line string }
	bannerShown     struct{ msg string }
	bannerDismissed struct{}
	spinEnabled     struct{ on bool }
	repeatEnabled   struct{ on bool }
	tableShown      struct{ html string }
	runFinished     struct {
		cmd Command
		err error
	}
)

func (laneSet) isLobbyMsg()         {}
func (logAppended) isLobbyMsg()     {}
func (bannerShown) isLobbyMsg()     {}
func (bannerDismissed) isLobbyMsg() {}
func (spinEnabled) isLobbyMsg()     {}
func (repeatEnabled) isLobbyMsg()   {}
func (tableShown) isLobbyMsg()      {}
func (runFinished) isLobbyMsg()     {}

// Snapshot is one versioned update for a client. LanesOnly marks a reel
// frame: only State.Lanes is filled in and every other field is unchanged.
type Snapshot struct {
	Version   int
	State     types.TableState
	LanesOnly bool
}

type View struct {
	Version    int
	NumClients int
	Running    bool
	State      types.TableState
}

type Config struct {
	RaffleID int64
	Drawer   slot.Drawer
	Tables   slot.TableSource // optional
	Timing   slot.Timing      // zero means slot.DefaultTiming
	Mode     slot.Mode        // zero means slot.DefaultMode
	Clock    clockwork.Clock  // nil means the real clock
	Log      *zap.Logger

	// Idle is called once the last client has left and no run is in
	// progress. It runs on its own goroutine.
	Idle func(*Lobby)
}

// Lobby is the live table of one raffle. Its loop owns the table state; the
// slot controller runs on its own goroutine and reports back via the inbox.
type Lobby struct {
	inbox   chan Msg
	ctl     *slot.Controller
	tables  slot.TableSource
	state   types.TableState
	version int
	running bool
	clients map[string]chan Snapshot
	joined  bool
	idle    func(*Lobby)
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Timing.Tick == 0 {
		cfg.Timing = slot.DefaultTiming()
	}
	if cfg.Mode.Level == "" {
		cfg.Mode = slot.DefaultMode()
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		tables:  cfg.Tables,
		clients: make(map[string]chan Snapshot),
		idle:    cfg.Idle,
		log:     cfg.Log.With(zap.Int64("raffle_id", cfg.RaffleID)),
		ctx:     ctx,
		cancel:  cancel,
		state: types.TableState{
			Log:           []string{},
			SpinEnabled:   true,
			RepeatEnabled: true,
			Mode:          cfg.Mode.Flags(),
		},
	}

	opts := []slot.Option{
		slot.WithClock(cfg.Clock),
		slot.WithTiming(cfg.Timing),
		slot.WithLogger(cfg.Log),
		slot.WithMode(cfg.Mode),
	}
	if cfg.Tables != nil {
		opts = append(opts, slot.WithTables(cfg.Tables))
	}
	l.ctl = slot.NewController(cfg.RaffleID, cfg.Drawer, presenter{l}, opts...)

	go l.loop()
	if cfg.Tables != nil {
		go l.loadTable()
	}
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				l.joined = true
				msg.Outbox <- l.snapshot()

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}
				l.checkIdle()

			case FromClient:
				l.handleCommand(msg)

			case runFinished:
				l.running = false
				if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
					l.log.Warn("slot run ended", zap.String("cmd", string(msg.cmd)), zap.Error(msg.err))
				}
				l.checkIdle()

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Running:    l.running,
					State:      l.copyState(),
				}

			case Shutdown:
				l.shutdown()
				return

			default:
				l.applyPresenter(m)
			}
		}
	}
}

func (l *Lobby) handleCommand(msg FromClient) {
	switch msg.Cmd {
	case CmdSetMode:
		mode := msg.Mode
		if mode.Level == "" {
			mode.Level = slot.DefaultMode().Level
		}
		l.ctl.SetMode(mode)
		l.state.Mode = mode.Flags()
		l.publish()

	case CmdSpin, CmdRepeat:
		if l.running {
			l.log.Debug("command ignored while spinning",
				zap.String("cmd", string(msg.Cmd)), zap.String("client_id", msg.ClientID))
			return
		}
		l.running = true
		run := l.ctl.Spin
		if msg.Cmd == CmdRepeat {
			run = l.ctl.Repeat
		}
		go func(cmd Command) {
			l.send(runFinished{cmd: cmd, err: run(l.ctx)})
		}(msg.Cmd)
	}
}

func (l *Lobby) applyPresenter(m Msg) {
	switch msg := m.(type) {
	case laneSet:
		if msg.lane < 0 || msg.lane >= len(l.state.Lanes) {
			return
		}
		l.state.Lanes[msg.lane] = msg.text
		l.publishLanes()
		return
	case logAppended:
		l.state.Log = append(l.state.Log, msg.line)
		if n := len(l.state.Log); n > MaxLogLines {
			l.state.Log = append([]string(nil), l.state.Log[n-MaxLogLines:]...)
		}
	case bannerShown:
		l.state.Banner = msg.msg
	case bannerDismissed:
		l.state.Banner = ""
	case spinEnabled:
		l.state.SpinEnabled = msg.on
	case repeatEnabled:
		l.state.RepeatEnabled = msg.on
	case tableShown:
		l.state.TableHTML = msg.html
	default:
		return
	}
	l.publish()
}

func (l *Lobby) loadTable() {
	html, err := l.tables.ParticipantsTable(l.ctx, l.ctl.RaffleID())
	if err != nil {
		l.log.Error("Error updating table", zap.Error(err))
		return
	}
	l.send(tableShown{html: html})
}

func (l *Lobby) publish() {
	l.version++
	l.broadcast(l.snapshot())
}

// publishLanes sends a reel frame. Reels tick far more often than anything
// else changes, so ticks skip the log and the table fragment.
func (l *Lobby) publishLanes() {
	l.version++
	l.broadcast(Snapshot{
		Version:   l.version,
		State:     types.TableState{Lanes: l.state.Lanes},
		LanesOnly: true,
	})
}

// checkIdle reports the lobby idle once every client that joined is gone.
func (l *Lobby) checkIdle() {
	if l.idle == nil || !l.joined || l.running || len(l.clients) > 0 {
		return
	}
	go l.idle(l)
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, State: l.copyState()}
}

// copyState detaches the log so clients never share the lobby's backing array.
func (l *Lobby) copyState() types.TableState {
	s := l.state
	s.Log = append([]string(nil), l.state.Log...)
	return s
}

// send posts to the inbox unless the lobby is gone.
func (l *Lobby) send(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	dropped := false
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
			dropped = true
			l.log.Info("dropped slow client", zap.String("client_id", id), zap.Int("version", snap.Version))
		}
	}
	if dropped {
		l.checkIdle()
	}
}

// Inbox is how the websocket layer and tests talk to the lobby.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) RaffleID() int64 { return l.ctl.RaffleID() }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// presenter turns controller calls into inbox messages.
type presenter struct{ l *Lobby }

func (p presenter) SetLane(lane int, text string) { p.l.send(laneSet{lane: lane, text: text}) }
func (p presenter) AppendLog(line string)         { p.l.send(logAppended{line: line}) }
func (p presenter) ShowBanner(msg string)         { p.l.send(bannerShown{msg: msg}) }
func (p presenter) DismissBanner()                { p.l.send(bannerDismissed{}) }
func (p presenter) EnableSpin(on bool)            { p.l.send(spinEnabled{on: on}) }
func (p presenter) EnableRepeat(on bool)          { p.l.send(repeatEnabled{on: on}) }
func (p presenter) ShowTable(fragment string)     { p.l.send(tableShown{html: fragment}) }
