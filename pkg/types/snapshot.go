package types

// TableState is what a browser needs to paint the slot page:
//
//	lanes:          text shown in slot1..slot3
//	log:            lines of output_text, oldest first
//	banner:         transient alert, "" when hidden
//	spin_enabled:   spin_button state
//	repeat_enabled: spin_button2 state
//	table_html:     participants-table fragment
//	mode:           elimination / two_out_of_three / level controls
type TableState struct {
	Lanes         [3]string `json:"lanes"`
	Log           []string  `json:"log"`
	Banner        string    `json:"banner,omitempty"`
	SpinEnabled   bool      `json:"spin_enabled"`
	RepeatEnabled bool      `json:"repeat_enabled"`
	TableHTML     string    `json:"table_html,omitempty"`
	Mode          ModeFlags `json:"mode"`
}

type ModeFlags struct {
	Elimination bool   `json:"elimination"`
	TwoOfThree  bool   `json:"two_out_of_three"`
	Level       string `json:"level"`
}
