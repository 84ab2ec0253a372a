package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "raffle.draws.42", Subject(42))
}

func TestDrawCompleted_JSON(t *testing.T) {
	w := int64(7)
	ev := DrawCompleted{
		RaffleID:   3,
		Level:      "half",
		TwoOfThree: true,
		Lanes:      [3]int64{7, 7, 2},
		Winner:     &w,
		At:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"raffle_id": 3,
		"level": "half",
		"elimination": false,
		"two_out_of_three": true,
		"lanes": [7, 7, 2],
		"winner": 7,
		"eliminated": false,
		"at": "2024-05-01T12:00:00Z"
	}`, string(data))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishDraw(context.Background(), DrawCompleted{}))
	assert.NoError(t, p.Close())
}
