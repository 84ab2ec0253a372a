package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const SubjectPrefix = "raffle.draws"

// DrawCompleted is published once per successful draw.
type DrawCompleted struct {
	RaffleID    int64     `json:"raffle_id"`
	Level       string    `json:"level"`
	Elimination bool      `json:"elimination"`
	TwoOfThree  bool      `json:"two_out_of_three"`
	Lanes       [3]int64  `json:"lanes"`
	Winner      *int64    `json:"winner,omitempty"`
	Eliminated  bool      `json:"eliminated"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	PublishDraw(ctx context.Context, ev DrawCompleted) error
	Close() error
}

func Subject(raffleID int64) string {
	return fmt.Sprintf("%s.%d", SubjectPrefix, raffleID)
}

type Nop struct{}

func (Nop) PublishDraw(context.Context, DrawCompleted) error { return nil }
func (Nop) Close() error                                     { return nil }

type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher sends draw events as JSON on raffle.draws.<raffle_id>.
type NATSPublisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewNATSPublisher(cfg NATSConfig, log *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("raffle-slots"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, log: log}, nil
}

func (p *NATSPublisher) PublishDraw(ctx context.Context, ev DrawCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal draw event: %w", err)
	}
	if err := p.nc.Publish(Subject(ev.RaffleID), data); err != nil {
		return fmt.Errorf("publish draw event: %w", err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	err := p.nc.Drain()
	if err != nil {
		p.nc.Close()
	}
	return err
}
