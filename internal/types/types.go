package types

import "github.com/DoyleJ11/raffle-slots/pkg/types"

// ClientMessage is what a browser sends over the live-table socket. The mode
// fields are only read for SetMode.
type ClientMessage struct {
	Type        string `json:"type"` // "Spin" | "Repeat" | "SetMode"
	Elimination bool   `json:"elimination,omitempty"`
	TwoOfThree  bool   `json:"two_out_of_three,omitempty"`
	Level       string `json:"level,omitempty"`
}

// ServerMessage is pushed to browsers. A LaneFrame only carries the reels;
// everything else stays as the last StateSnapshot left it.
type ServerMessage struct {
	Type    string            `json:"type"` // "StateSnapshot" | "LaneFrame" | "Error"
	Version int               `json:"version,omitempty"`
	State   *types.TableState `json:"state,omitempty"`
	Lanes   *[3]string        `json:"lanes,omitempty"`
	Error   string            `json:"error,omitempty"`
}
