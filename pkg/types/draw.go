package types

// LegendExhausted is the legend of a draw that had too few tickets left.
const LegendExhausted = "No more participants left"

// Participant mirrors a raffle participant as served by the draw endpoint.
type Participant struct {
	ID             int64  `json:"id"`
	RaffleID       int64  `json:"raffle_id"`
	Name           string `json:"name"`
	ValidTickets   int    `json:"valid_tickets"`
	InvalidTickets int    `json:"invalid_tickets"`
	Status         string `json:"status"`
}

// DrawResult carries the participant ids each lane landed on. Winner is nil
// when the lanes did not line up.
type DrawResult struct {
	Participating []Participant `json:"participating"`
	Lane1         int64         `json:"lane1"`
	Lane2         int64         `json:"lane2"`
	Lane3         int64         `json:"lane3"`
	Winner        *int64        `json:"winner"`
}

// DrawResponse is the body of GET /draw/{raffle_id}/. Result is nil once
// the raffle has run out of participants.
type DrawResponse struct {
	Legend string      `json:"legend"`
	List   []int64     `json:"list"`
	Result *DrawResult `json:"result"`
}

func (r DrawResult) Lanes() [3]int64 { return [3]int64{r.Lane1, r.Lane2, r.Lane3} }
