package slot

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

var ErrBusy = errors.New("slot machine is busy")

const NumLanes = 3

// Mode is sent verbatim with every draw request; its meaning lives server side.
type Mode struct {
	Elimination bool   `yaml:"elimination"`
	TwoOfThree  bool   `yaml:"two_out_of_three"`
	Level       string `yaml:"level"`
}

func DefaultMode() Mode { return Mode{Level: "soft"} }

func (m Mode) Flags() types.ModeFlags {
	return types.ModeFlags{Elimination: m.Elimination, TwoOfThree: m.TwoOfThree, Level: m.Level}
}

func ModeFromFlags(f types.ModeFlags) Mode {
	m := Mode{Elimination: f.Elimination, TwoOfThree: f.TwoOfThree, Level: f.Level}
	if m.Level == "" {
		m.Level = DefaultMode().Level
	}
	return m
}

type Timing struct {
	Tick           time.Duration   `yaml:"tick"`
	Stops          []time.Duration `yaml:"stops"`
	ParticipantsAt time.Duration   `yaml:"participants_at"`
	IDsAt          time.Duration   `yaml:"ids_at"`
	ListAt         time.Duration   `yaml:"list_at"`
	Banner         time.Duration   `yaml:"banner"`
	RepeatEvery    time.Duration   `yaml:"repeat_every"`
}

func DefaultTiming() Timing {
	return Timing{
		Tick:           100 * time.Millisecond,
		Stops:          []time.Duration{3 * time.Second, 4 * time.Second, 5 * time.Second},
		ParticipantsAt: 1 * time.Second,
		IDsAt:          1500 * time.Millisecond,
		ListAt:         2500 * time.Millisecond,
		Banner:         3 * time.Second,
		RepeatEvery:    6 * time.Second,
	}
}

// Session is everything one slot page knows between spins. Lanes hold
// indexes into Names; -1 means unresolved.
type Session struct {
	Names  []string
	IDs    []int64
	List   []int64
	Lanes  [NumLanes]int
	Winner *int64
	Mode   Mode
}

func NewSession() Session {
	return Session{Lanes: [NumLanes]int{-1, -1, -1}, Mode: DefaultMode()}
}

func (s Session) clone() Session {
	out := s
	out.Names = slices.Clone(s.Names)
	out.IDs = slices.Clone(s.IDs)
	out.List = slices.Clone(s.List)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}

// apply folds a draw response into the session. Responses without a result
// only carry a legend and leave the session as it was.
func (s *Session) apply(resp *types.DrawResponse) {
	if resp == nil || resp.Result == nil {
		return
	}
	r := resp.Result
	s.Names = make([]string, len(r.Participating))
	s.IDs = make([]int64, len(r.Participating))
	for i, p := range r.Participating {
		s.Names[i] = p.Name
		s.IDs[i] = p.ID
	}
	s.List = slices.Clone(resp.List)
	for i, id := range r.Lanes() {
		s.Lanes[i] = slices.Index(s.IDs, id)
	}
	s.Winner = nil
	if r.Winner != nil {
		w := *r.Winner
		s.Winner = &w
	}
}

// LaneName is the name a stopped lane shows.
func (s Session) LaneName(lane int) string {
	return nameAt(s.Names, s.Lanes[lane])
}

func nameAt(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

func joinInts[T int | int64](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, ",")
}
