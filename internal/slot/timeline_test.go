package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeline_Default(t *testing.T) {
	cues := NewTimeline(DefaultTiming())

	var ticks [NumLanes]int
	var stops [NumLanes]time.Duration
	var logs []LogCue
	for i, c := range cues {
		if i > 0 {
			require.LessOrEqual(t, cues[i-1].At, c.At, "cues out of order at %d", i)
		}
		switch c.Kind {
		case CueTick:
			ticks[c.Lane]++
			assert.Zero(t, stops[c.Lane], "tick after stop on lane %d", c.Lane)
		case CueStop:
			stops[c.Lane] = c.At
		case CueLog:
			logs = append(logs, c.Log)
		}
	}

	assert.Equal(t, [NumLanes]int{29, 39, 49}, ticks)
	assert.Equal(t, [NumLanes]time.Duration{3 * time.Second, 4 * time.Second, 5 * time.Second}, stops)
	assert.Equal(t, []LogCue{LogParticipants, LogIDs, LogList}, logs)

	last := cues[len(cues)-1]
	assert.Equal(t, Cue{At: 5 * time.Second, Kind: CueStop, Lane: 2}, last)
}

func TestNewTimeline_TieBreaks(t *testing.T) {
	cues := NewTimeline(Timing{
		Tick:           time.Second,
		Stops:          []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second},
		ParticipantsAt: time.Second,
		IDsAt:          time.Second,
		ListAt:         time.Second,
	})

	want := []Cue{
		{At: time.Second, Kind: CueLog, Log: LogParticipants},
		{At: time.Second, Kind: CueLog, Log: LogIDs},
		{At: time.Second, Kind: CueLog, Log: LogList},
		{At: time.Second, Kind: CueTick, Lane: 0},
		{At: time.Second, Kind: CueTick, Lane: 1},
		{At: time.Second, Kind: CueTick, Lane: 2},
		{At: 2 * time.Second, Kind: CueStop, Lane: 0},
		{At: 2 * time.Second, Kind: CueStop, Lane: 1},
		{At: 2 * time.Second, Kind: CueStop, Lane: 2},
	}
	assert.Equal(t, want, cues)
}

func TestNewTimeline_NoTick(t *testing.T) {
	cues := NewTimeline(Timing{Stops: []time.Duration{time.Second}})
	// three log cues at zero plus one stop
	require.Len(t, cues, 4)
	assert.Equal(t, CueStop, cues[3].Kind)
}
