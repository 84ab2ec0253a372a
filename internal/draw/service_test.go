package draw

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DoyleJ11/raffle-slots/internal/events"
	"github.com/DoyleJ11/raffle-slots/internal/lottery"
	"github.com/DoyleJ11/raffle-slots/internal/store"
)

type seq struct {
	vals []int
	pos  int
}

func (s *seq) IntN(n int) int {
	v := s.vals[s.pos%len(s.vals)]
	s.pos++
	return v % n
}

type fakeStore struct {
	mu         sync.Mutex
	raffles    map[int64]bool
	people     []store.Participant
	eliminated []int64
	err        error
}

func (f *fakeStore) GetRaffle(_ context.Context, id int64) (*store.Raffle, error) {
	if !f.raffles[id] {
		return nil, store.ErrNotFound
	}
	return &store.Raffle{ID: id}, nil
}

func (f *fakeStore) Participating(context.Context, int64) ([]store.Participant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.people, nil
}

func (f *fakeStore) Eliminate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eliminated = append(f.eliminated, id)
	return nil
}

type fakePublisher struct {
	events []events.DrawCompleted
	err    error
}

func (p *fakePublisher) PublishDraw(_ context.Context, ev events.DrawCompleted) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func twoPlayers() *fakeStore {
	return &fakeStore{
		raffles: map[int64]bool{1: true},
		people: []store.Participant{
			{ID: 10, RaffleID: 1, Name: "Ann", ValidTickets: 2, Status: store.StatusParticipating},
			{ID: 20, RaffleID: 1, Name: "Bob", ValidTickets: 2, Status: store.StatusParticipating},
		},
	}
}

func TestLegend(t *testing.T) {
	got := Legend(lottery.Mode{Level: lottery.LevelHalf, Elimination: true})
	assert.Equal(t, "Applied draw level: half, elimination type: True, two out of three mode: False", got)
}

func TestService_Draw(t *testing.T) {
	cases := []struct {
		name           string
		mode           lottery.Mode
		fast, secure   []int
		wantLanes      [3]int64
		wantWinner     *int64
		wantEliminated []int64
	}{
		{
			name:      "hard three of a kind",
			mode:      lottery.Mode{Level: lottery.LevelHard},
			fast:      []int{0},
			secure:    []int{1},
			wantLanes: [3]int64{10, 10, 10},
			wantWinner: func() *int64 {
				v := int64(10)
				return &v
			}(),
		},
		{
			name:      "hard no match",
			mode:      lottery.Mode{Level: lottery.LevelHard},
			fast:      []int{0},
			secure:    []int{2, 3},
			wantLanes: [3]int64{10, 20, 20},
		},
		{
			name:      "two of three picks the pair",
			mode:      lottery.Mode{Level: lottery.LevelHard, TwoOfThree: true},
			fast:      []int{0},
			secure:    []int{2, 3},
			wantLanes: [3]int64{10, 20, 20},
			wantWinner: func() *int64 {
				v := int64(20)
				return &v
			}(),
		},
		{
			name:      "elimination books the winner",
			mode:      lottery.Mode{Level: lottery.LevelHard, Elimination: true},
			fast:      []int{3},
			secure:    []int{2},
			wantLanes: [3]int64{20, 20, 20},
			wantWinner: func() *int64 {
				v := int64(20)
				return &v
			}(),
			wantEliminated: []int64{20},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := twoPlayers()
			pub := &fakePublisher{}
			fc := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
			svc := NewService(st,
				WithSources(lottery.Sources{Fast: &seq{vals: tc.fast}, Secure: &seq{vals: tc.secure}}),
				WithPublisher(pub),
				WithClock(fc),
			)

			resp, err := svc.Draw(context.Background(), 1, tc.mode)
			require.NoError(t, err)

			assert.Equal(t, Legend(tc.mode), resp.Legend)
			assert.Equal(t, []int64{10, 10, 20, 20}, resp.List)
			require.NotNil(t, resp.Result)
			assert.Equal(t, tc.wantLanes, resp.Result.Lanes())
			assert.Equal(t, tc.wantWinner, resp.Result.Winner)
			assert.Len(t, resp.Result.Participating, 2)
			assert.Equal(t, "Participating", resp.Result.Participating[0].Status)
			assert.Equal(t, tc.wantEliminated, st.eliminated)

			require.Len(t, pub.events, 1)
			ev := pub.events[0]
			assert.Equal(t, int64(1), ev.RaffleID)
			assert.Equal(t, tc.wantLanes, ev.Lanes)
			assert.Equal(t, tc.wantEliminated != nil, ev.Eliminated)
			assert.Equal(t, fc.Now().UTC(), ev.At)
		})
	}
}

func TestService_Draw_Exhausted(t *testing.T) {
	st := &fakeStore{
		raffles: map[int64]bool{1: true},
		people: []store.Participant{
			{ID: 10, RaffleID: 1, Name: "Ann", ValidTickets: 1},
			{ID: 20, RaffleID: 1, Name: "Bob", ValidTickets: 0},
		},
	}
	pub := &fakePublisher{}
	svc := NewService(st, WithPublisher(pub))

	resp, err := svc.Draw(context.Background(), 1, lottery.Mode{Level: lottery.LevelSoft})
	require.NoError(t, err)
	assert.Equal(t, LegendExhausted, resp.Legend)
	assert.Equal(t, []int64{10}, resp.List)
	assert.Nil(t, resp.Result)
	assert.Empty(t, pub.events)
}

func TestService_Draw_Errors(t *testing.T) {
	svc := NewService(twoPlayers())
	_, err := svc.Draw(context.Background(), 99, lottery.Mode{Level: lottery.LevelSoft})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Draw(context.Background(), 1, lottery.Mode{Level: "extreme"})
	assert.ErrorIs(t, err, lottery.ErrUnknownLevel)

	broken := twoPlayers()
	broken.err = errors.New("connection reset")
	_, err = NewService(broken).Draw(context.Background(), 1, lottery.Mode{Level: lottery.LevelSoft})
	assert.EqualError(t, err, "connection reset")
}

func TestService_Draw_PublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &fakePublisher{err: errors.New("nats down")}
	svc := NewService(twoPlayers(), WithPublisher(pub), WithLogger(zap.New(core)))

	resp, err := svc.Draw(context.Background(), 1, lottery.Mode{Level: lottery.LevelSoft})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, logs.FilterMessage("publish draw event failed").Len())
}
