package store

import "time"

type Status string

const (
	StatusParticipating Status = "Participating"
	StatusDisqualified  Status = "Disqualified"
)

type Raffle struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Creator      string `gorm:"size:150;not null"`
	CreatedAt    time.Time
	Participants []Participant `gorm:"constraint:OnDelete:CASCADE"`
}

type Participant struct {
	ID             int64  `gorm:"primaryKey"`
	RaffleID       int64  `gorm:"index;not null"`
	Name           string `gorm:"size:100;not null"`
	ValidTickets   int    `gorm:"not null;default:0;check:valid_tickets >= 0"`
	InvalidTickets int    `gorm:"not null;default:0;check:invalid_tickets >= 0"`
	Status         Status `gorm:"size:20;not null;default:Participating"`
}

// NewParticipant is one row of a raffle upload.
type NewParticipant struct {
	Name    string
	Tickets int
}

// eliminate books one lost ticket. A participant with no tickets left is
// disqualified.
func (p *Participant) eliminate() {
	if p.ValidTickets > 0 {
		p.ValidTickets--
	}
	p.InvalidTickets++
	if p.ValidTickets == 0 {
		p.Status = StatusDisqualified
	}
}
