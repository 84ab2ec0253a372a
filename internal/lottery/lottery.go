package lottery

import (
	"errors"
	"fmt"
)

var ErrUnknownLevel = errors.New("unknown draw level")
var ErrNotEnoughTickets = errors.New("not enough tickets to draw")

type Level string

const (
	LevelSoft Level = "soft"
	LevelHalf Level = "half"
	LevelHard Level = "hard"
)

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelSoft, LevelHalf, LevelHard:
		return Level(s), nil
	case "":
		return LevelSoft, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// Mode is the set of flags a caller sends with every draw.
type Mode struct {
	Elimination bool
	TwoOfThree  bool
	Level       Level
}

type Entrant struct {
	ID      int64
	Name    string
	Tickets int
}

type Result struct {
	Lanes  [3]int64
	Winner *int64
}

func (r Result) HasWinner() bool { return r.Winner != nil }

// Source picks an integer in [0, n). n is always > 0.
type Source interface {
	IntN(n int) int
}

// Sources splits randomness the way the levels need it: Fast backs the
// weighted pickers, Secure backs the uniform ticket picks.
type Sources struct {
	Fast   Source
	Secure Source
}

func Draw(pool Pool, mode Mode, src Sources) (Result, error) {
	if pool.Len() <= 1 {
		return Result{}, ErrNotEnoughTickets
	}

	pick := func() int64 { return pool.Weighted(src.Fast) }
	if mode.Elimination {
		pick = func() int64 { return pool.InvertedWeighted(src.Fast) }
	}

	var lanes [3]int64
	switch mode.Level {
	case LevelSoft, "":
		lanes = [3]int64{pick(), pick(), pick()}
	case LevelHalf:
		lanes = [3]int64{pick(), pick(), pool.At(src.Secure.IntN(pool.Len()))}
	case LevelHard:
		lanes = [3]int64{
			pool.At(src.Fast.IntN(pool.Len())),
			pool.At(src.Secure.IntN(pool.Len())),
			pool.At(src.Secure.IntN(pool.Len())),
		}
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownLevel, mode.Level)
	}

	return Result{Lanes: lanes, Winner: Resolve(lanes, mode.TwoOfThree)}, nil
}

// Resolve returns the winning id for a set of lanes, or nil.
func Resolve(lanes [3]int64, twoOfThree bool) *int64 {
	r1, r2, r3 := lanes[0], lanes[1], lanes[2]
	if twoOfThree {
		switch {
		case r1 == r2 || r1 == r3:
			return &r1
		case r2 == r3:
			return &r2
		}
		return nil
	}
	if r1 == r2 && r2 == r3 {
		return &r1
	}
	return nil
}
