package slot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

var errNoResult = errors.New("draw returned neither a result nor exhaustion")

// Controller drives one slot machine: it asks for a draw, plays the reels
// and reports the outcome through a Presenter. Spin and Repeat never overlap.
type Controller struct {
	raffleID  int64
	drawer    Drawer
	tables    TableSource
	presenter Presenter
	clock     clockwork.Clock
	timing    Timing
	timeline  []Cue
	log       *zap.Logger

	mu      sync.Mutex
	session Session
	busy    bool
}

type Option func(*Controller)

func WithClock(c clockwork.Clock) Option { return func(ctl *Controller) { ctl.clock = c } }

func WithTiming(t Timing) Option { return func(ctl *Controller) { ctl.timing = t } }

func WithLogger(l *zap.Logger) Option { return func(ctl *Controller) { ctl.log = l } }

// WithTables refreshes the participants table after every spin.
func WithTables(t TableSource) Option { return func(ctl *Controller) { ctl.tables = t } }

func WithMode(m Mode) Option { return func(ctl *Controller) { ctl.session.Mode = m } }

func NewController(raffleID int64, drawer Drawer, p Presenter, opts ...Option) *Controller {
	c := &Controller{
		raffleID:  raffleID,
		drawer:    drawer,
		presenter: p,
		clock:     clockwork.NewRealClock(),
		timing:    DefaultTiming(),
		log:       zap.NewNop(),
		session:   NewSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.Int64("raffle_id", raffleID))
	c.timeline = NewTimeline(c.timing)
	return c
}

func (c *Controller) RaffleID() int64 { return c.raffleID }

func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Mode = m
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Mode
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

// release hands the controls back once a spin or a repeat run is over.
func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.presenter.EnableSpin(true)
	c.presenter.EnableRepeat(true)
}

// Spin plays one round. It returns ErrBusy while another round or a repeat
// run is in progress, and ctx.Err() if cancelled mid-spin.
func (c *Controller) Spin(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	_, err := c.spin(ctx)
	return err
}

// Repeat spins on a fixed cadence until a winner is drawn, the raffle runs
// out of participants, or ctx is cancelled.
func (c *Controller) Repeat(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	c.presenter.AppendLog("Please wait...")
	c.mu.Lock()
	c.session.Winner = nil
	c.mu.Unlock()
	c.presenter.EnableRepeat(false)

	start := c.clock.Now()
	for n := 1; ; n++ {
		due := time.Duration(n) * c.timing.RepeatEvery
		if err := c.sleepUntil(ctx, start, due); err != nil {
			return err
		}
		if c.Session().Winner != nil {
			return nil
		}

		exhausted, err := c.spin(ctx)
		if err != nil {
			return err
		}
		if exhausted {
			c.log.Info("raffle exhausted, repeat stopped")
			return nil
		}
	}
}

// spin reports whether the draw came back without a result.
func (c *Controller) spin(ctx context.Context) (bool, error) {
	c.presenter.EnableSpin(false)
	c.presenter.EnableRepeat(false)

	exhausted := c.fetch(ctx)

	view := c.Session()
	if err := c.animate(ctx, view); err != nil {
		return false, err
	}
	c.finish(ctx, view)
	return exhausted, nil
}

// fetch applies a draw to the session and reports whether the raffle ran
// out of tickets. Failures are logged and otherwise ignored so the reels
// still spin over whatever the session already holds.
func (c *Controller) fetch(ctx context.Context) bool {
	mode := c.Mode()
	resp, err := c.drawer.Draw(ctx, c.raffleID, mode)
	if err == nil && resp != nil && resp.Result == nil && resp.Legend != types.LegendExhausted {
		err = errNoResult
	}
	if err != nil || resp == nil {
		c.log.Error("Failed to fetch data",
			zap.String("level", mode.Level),
			zap.Bool("elimination", mode.Elimination),
			zap.Bool("two_three", mode.TwoOfThree),
			zap.Error(err),
		)
		return false
	}

	c.mu.Lock()
	c.session.apply(resp)
	c.mu.Unlock()

	c.presenter.AppendLog(resp.Legend)
	return resp.Result == nil
}

func (c *Controller) animate(ctx context.Context, view Session) error {
	start := c.clock.Now()
	var counters [NumLanes]int
	var stopped [NumLanes]bool

	for _, cue := range c.timeline {
		if err := c.sleepUntil(ctx, start, cue.At); err != nil {
			return err
		}

		switch cue.Kind {
		case CueTick:
			if stopped[cue.Lane] || len(view.Names) == 0 {
				continue
			}
			c.presenter.SetLane(cue.Lane, view.Names[counters[cue.Lane]])
			counters[cue.Lane]++
			if counters[cue.Lane] >= len(view.Names) {
				counters[cue.Lane] = 0
			}
		case CueStop:
			stopped[cue.Lane] = true
			c.presenter.SetLane(cue.Lane, view.LaneName(cue.Lane))
		case CueLog:
			c.presenter.AppendLog(logLine(cue.Log, view))
		}
	}
	return nil
}

func (c *Controller) finish(ctx context.Context, view Session) {
	c.refreshTable(ctx)

	winner := "nobody"
	if view.Winner != nil {
		winner = strconv.FormatInt(*view.Winner, 10)
	}
	c.presenter.AppendLog(fmt.Sprintf("Result: %s | Winner: %s", joinInts(view.Lanes[:]), winner))

	if msg := AlertFor(view.Winner != nil, c.Mode().Elimination); msg != "" {
		c.presenter.ShowBanner(msg)
		c.clock.AfterFunc(c.timing.Banner, func() {
			c.presenter.DismissBanner()
			if !c.Busy() {
				c.presenter.EnableRepeat(true)
			}
		})
	}
}

func (c *Controller) refreshTable(ctx context.Context) {
	if c.tables == nil {
		return
	}
	fragment, err := c.tables.ParticipantsTable(ctx, c.raffleID)
	if err != nil {
		c.log.Error("Error updating table", zap.Error(err))
		return
	}
	c.presenter.ShowTable(fragment)
}

func (c *Controller) sleepUntil(ctx context.Context, start time.Time, offset time.Duration) error {
	wait := offset - c.clock.Since(start)
	if wait <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(wait):
		return nil
	}
}

func logLine(which LogCue, view Session) string {
	switch which {
	case LogParticipants:
		return "Participating: " + strings.Join(view.Names, ",")
	case LogIDs:
		return "Participant IDs: " + joinInts(view.IDs)
	default:
		return "Draw list: " + joinInts(view.List)
	}
}
