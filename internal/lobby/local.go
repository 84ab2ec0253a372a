package lobby

import (
	"context"

	"github.com/DoyleJ11/raffle-slots/internal/lottery"
	"github.com/DoyleJ11/raffle-slots/internal/slot"
	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

type DrawService interface {
	Draw(ctx context.Context, raffleID int64, mode lottery.Mode) (*types.DrawResponse, error)
}

// LocalDrawer serves a table's draws in-process instead of over HTTP.
type LocalDrawer struct {
	Service DrawService
}

func (d LocalDrawer) Draw(ctx context.Context, raffleID int64, m slot.Mode) (*types.DrawResponse, error) {
	level, err := lottery.ParseLevel(m.Level)
	if err != nil {
		return nil, err
	}
	return d.Service.Draw(ctx, raffleID, lottery.Mode{
		Elimination: m.Elimination,
		TwoOfThree:  m.TwoOfThree,
		Level:       level,
	})
}

// TableFunc adapts a renderer to slot.TableSource.
type TableFunc func(ctx context.Context, raffleID int64) (string, error)

func (f TableFunc) ParticipantsTable(ctx context.Context, raffleID int64) (string, error) {
	return f(ctx, raffleID)
}
