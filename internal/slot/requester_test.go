package slot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawURL(t *testing.T) {
	got := DrawURL("http://raffle.local/", 12, Mode{Elimination: true, Level: "half"})
	assert.Equal(t, "http://raffle.local/draw/12/?invested=true&two_three=false&level=half", got)
	assert.Equal(t, "http://raffle.local/raffle/12/update_participants/", ParticipantsURL("http://raffle.local", 12))
}

func TestHTTPRequester_Draw(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"legend": "Applied draw level: hard, elimination type: False, two out of three mode: True",
			"list": [1, 2, 2],
			"result": {
				"participating": [{"id": 1, "name": "Ann", "valid_tickets": 1}, {"id": 2, "name": "Bob", "valid_tickets": 2}],
				"lane1": 2, "lane2": 1, "lane3": 2, "winner": 2
			}
		}`))
	}))
	defer srv.Close()

	r := NewHTTPRequester(srv.URL, srv.Client())
	resp, err := r.Draw(context.Background(), 4, Mode{TwoOfThree: true, Level: "hard"})
	require.NoError(t, err)

	assert.Equal(t, "/draw/4/", gotPath)
	assert.Equal(t, "invested=false&two_three=true&level=hard", gotQuery)
	require.NotNil(t, resp.Result)
	assert.Equal(t, [3]int64{2, 1, 2}, resp.Result.Lanes())
	require.NotNil(t, resp.Result.Winner)
	assert.Equal(t, int64(2), *resp.Result.Winner)
	assert.Equal(t, []int64{1, 2, 2}, resp.List)
	assert.Len(t, resp.Result.Participating, 2)
}

func TestHTTPRequester_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"legend": "No more participants left", "list": [5], "result": null}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPRequester(srv.URL, nil).Draw(context.Background(), 1, DefaultMode())
	require.NoError(t, err)
	assert.Equal(t, "No more participants left", resp.Legend)
	assert.Nil(t, resp.Result)
}

func TestHTTPRequester_BodiesWithoutLegendAreErrors(t *testing.T) {
	for _, body := range []string{`null`, `{}`, `{"result": null}`} {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			resp, err := NewHTTPRequester(srv.URL, srv.Client()).Draw(context.Background(), 1, DefaultMode())
			require.ErrorIs(t, err, ErrNoLegend)
			assert.Nil(t, resp)
		})
	}
}

func TestHTTPRequester_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "raffle not found", http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPRequester(srv.URL, srv.Client())
	_, err := r.Draw(context.Background(), 99, DefaultMode())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
	assert.Contains(t, err.Error(), "raffle not found")

	_, err = r.ParticipantsTable(context.Background(), 99)
	require.Error(t, err)
}

func TestHTTPRequester_ParticipantsTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raffle/3/update_participants/", r.URL.Path)
		_, _ = w.Write([]byte("<table><tr><td>Ann</td></tr></table>"))
	}))
	defer srv.Close()

	got, err := NewHTTPRequester(srv.URL, srv.Client()).ParticipantsTable(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "<table><tr><td>Ann</td></tr></table>", got)
}
