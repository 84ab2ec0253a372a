package draw

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/internal/events"
	"github.com/DoyleJ11/raffle-slots/internal/lottery"
	"github.com/DoyleJ11/raffle-slots/internal/store"
	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

const LegendExhausted = types.LegendExhausted

type Store interface {
	GetRaffle(ctx context.Context, id int64) (*store.Raffle, error)
	Participating(ctx context.Context, raffleID int64) ([]store.Participant, error)
	Eliminate(ctx context.Context, participantID int64) error
}

type Service struct {
	store   Store
	sources lottery.Sources
	pub     events.Publisher
	clock   clockwork.Clock
	log     *zap.Logger
}

type Option func(*Service)

func WithSources(src lottery.Sources) Option { return func(s *Service) { s.sources = src } }

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.pub = p } }

func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		sources: lottery.DefaultSources(),
		pub:     events.Nop{},
		clock:   clockwork.NewRealClock(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func Legend(m lottery.Mode) string {
	return fmt.Sprintf("Applied draw level: %s, elimination type: %s, two out of three mode: %s",
		m.Level, legendBool(m.Elimination), legendBool(m.TwoOfThree))
}

// legendBool spells flags the way existing legend readers expect them.
func legendBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Draw runs one draw for the raffle. A missing raffle is store.ErrNotFound;
// a raffle with one ticket or fewer yields a response without a result.
func (s *Service) Draw(ctx context.Context, raffleID int64, mode lottery.Mode) (*types.DrawResponse, error) {
	if _, err := s.store.GetRaffle(ctx, raffleID); err != nil {
		return nil, err
	}

	participants, err := s.store.Participating(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	pool := lottery.NewPool(entrants(participants))
	list := pool.IDs()

	res, err := lottery.Draw(pool, mode, s.sources)
	if errors.Is(err, lottery.ErrNotEnoughTickets) {
		return &types.DrawResponse{Legend: LegendExhausted, List: list}, nil
	}
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.Int64("raffle_id", raffleID))
	eliminated := false
	if res.HasWinner() && mode.Elimination {
		if err := s.store.Eliminate(ctx, *res.Winner); err != nil {
			return nil, err
		}
		eliminated = true
	}

	ev := events.DrawCompleted{
		RaffleID:    raffleID,
		Level:       string(mode.Level),
		Elimination: mode.Elimination,
		TwoOfThree:  mode.TwoOfThree,
		Lanes:       res.Lanes,
		Winner:      res.Winner,
		Eliminated:  eliminated,
		At:          s.clock.Now().UTC(),
	}
	if err := s.pub.PublishDraw(ctx, ev); err != nil {
		log.Warn("publish draw event failed", zap.Error(err))
	}

	log.Info("draw",
		zap.String("level", string(mode.Level)),
		zap.Int64s("lanes", res.Lanes[:]),
		zap.Bool("winner", res.HasWinner()),
	)

	return &types.DrawResponse{
		Legend: Legend(mode),
		List:   list,
		Result: &types.DrawResult{
			Participating: wireParticipants(participants),
			Lane1:         res.Lanes[0],
			Lane2:         res.Lanes[1],
			Lane3:         res.Lanes[2],
			Winner:        res.Winner,
		},
	}, nil
}

func entrants(ps []store.Participant) []lottery.Entrant {
	out := make([]lottery.Entrant, len(ps))
	for i, p := range ps {
		out[i] = lottery.Entrant{ID: p.ID, Name: p.Name, Tickets: p.ValidTickets}
	}
	return out
}

// wireParticipants reports the participants as they were before any
// elimination from this draw.
func wireParticipants(ps []store.Participant) []types.Participant {
	out := make([]types.Participant, len(ps))
	for i, p := range ps {
		out[i] = types.Participant{
			ID:             p.ID,
			RaffleID:       p.RaffleID,
			Name:           p.Name,
			ValidTickets:   p.ValidTickets,
			InvalidTickets: p.InvalidTickets,
			Status:         string(p.Status),
		}
	}
	return out
}
