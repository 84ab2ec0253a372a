package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = fmt.Errorf("raffle store: %w", gorm.ErrRecordNotFound)

// Store keeps raffles and their participants in Postgres.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Raffle{}, &Participant{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListRaffles(ctx context.Context) ([]Raffle, error) {
	var raffles []Raffle
	if err := s.db.WithContext(ctx).Order("id").Find(&raffles).Error; err != nil {
		return nil, fmt.Errorf("list raffles: %w", err)
	}
	return raffles, nil
}

func (s *Store) GetRaffle(ctx context.Context, id int64) (*Raffle, error) {
	var r Raffle
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, fmt.Errorf("get raffle %d: %w", id, notFound(err))
	}
	return &r, nil
}

// CreateRaffle inserts the raffle and all of its participants in one
// transaction.
func (s *Store) CreateRaffle(ctx context.Context, name, creator string, entries []NewParticipant) (*Raffle, error) {
	r := Raffle{Name: name, Creator: creator}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]Participant, len(entries))
		for i, e := range entries {
			rows[i] = Participant{
				RaffleID:     r.ID,
				Name:         e.Name,
				ValidTickets: e.Tickets,
				Status:       StatusParticipating,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		r.Participants = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create raffle: %w", err)
	}
	return &r, nil
}

// Participants lists everyone in the raffle, disqualified included.
func (s *Store) Participants(ctx context.Context, raffleID int64) ([]Participant, error) {
	return s.participants(ctx, raffleID, "")
}

// Participating lists the participants still in the draw.
func (s *Store) Participating(ctx context.Context, raffleID int64) ([]Participant, error) {
	return s.participants(ctx, raffleID, StatusParticipating)
}

func (s *Store) participants(ctx context.Context, raffleID int64, status Status) ([]Participant, error) {
	q := s.db.WithContext(ctx).Where("raffle_id = ?", raffleID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var ps []Participant
	if err := q.Order("id").Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("list participants of raffle %d: %w", raffleID, err)
	}
	return ps, nil
}

// Eliminate takes one ticket from the participant. Unknown ids are ignored.
func (s *Store) Eliminate(ctx context.Context, participantID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Participant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, participantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		p.eliminate()
		return tx.Model(&p).Select("ValidTickets", "InvalidTickets", "Status").Updates(&p).Error
	})
	if err != nil {
		return fmt.Errorf("eliminate participant %d: %w", participantID, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
