package slot

import (
	"sort"
	"time"
)

type CueKind int

const (
	CueLog CueKind = iota
	CueTick
	CueStop
)

type LogCue int

const (
	LogParticipants LogCue = iota
	LogIDs
	LogList
)

// Cue is one step of a spin, At being the offset from the moment the reels
// start moving.
type Cue struct {
	At   time.Duration
	Kind CueKind
	Lane int
	Log  LogCue
}

// NewTimeline lays out a whole spin: every lane ticks until its stop and the
// three info lines land on their offsets. Cues sharing an offset run logs
// first, then ticks, then stops, lane order breaking ties.
func NewTimeline(t Timing) []Cue {
	var cues []Cue
	cues = append(cues,
		Cue{At: t.ParticipantsAt, Kind: CueLog, Log: LogParticipants},
		Cue{At: t.IDsAt, Kind: CueLog, Log: LogIDs},
		Cue{At: t.ListAt, Kind: CueLog, Log: LogList},
	)

	for lane := 0; lane < NumLanes && lane < len(t.Stops); lane++ {
		stop := t.Stops[lane]
		if t.Tick > 0 {
			for at := t.Tick; at < stop; at += t.Tick {
				cues = append(cues, Cue{At: at, Kind: CueTick, Lane: lane})
			}
		}
		cues = append(cues, Cue{At: stop, Kind: CueStop, Lane: lane})
	}

	sort.SliceStable(cues, func(i, j int) bool {
		a, b := cues[i], cues[j]
		if a.At != b.At {
			return a.At < b.At
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Lane < b.Lane
	})
	return cues
}
