package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/internal/lottery"
	"github.com/DoyleJ11/raffle-slots/internal/store"
	"github.com/DoyleJ11/raffle-slots/pkg/types"
)

const maxUploadBytes = 4 << 20

type Store interface {
	ParticipantLister
	ListRaffles(ctx context.Context) ([]store.Raffle, error)
	GetRaffle(ctx context.Context, id int64) (*store.Raffle, error)
	CreateRaffle(ctx context.Context, name, creator string, entries []store.NewParticipant) (*store.Raffle, error)
}

type Drawer interface {
	Draw(ctx context.Context, raffleID int64, mode lottery.Mode) (*types.DrawResponse, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func raffleID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// storeError maps lookups to 404 and everything else to 500.
func storeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "raffle not found", http.StatusNotFound)
		return
	}
	log.Error("store", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// ParseMode reads invested, two_three and level the way the slot page sends
// them. Only a literal "true" (any case) switches a flag on.
func ParseMode(r *http.Request) (lottery.Mode, error) {
	q := r.URL.Query()
	level, err := lottery.ParseLevel(q.Get("level"))
	if err != nil {
		return lottery.Mode{}, err
	}
	return lottery.Mode{
		Elimination: strings.EqualFold(q.Get("invested"), "true"),
		TwoOfThree:  strings.EqualFold(q.Get("two_three"), "true"),
		Level:       level,
	}, nil
}

func Draw(svc Drawer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := raffleID(r)
		if !ok {
			http.Error(w, "bad raffle id", http.StatusBadRequest)
			return
		}
		mode, err := ParseMode(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := svc.Draw(r.Context(), id, mode)
		if err != nil {
			storeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func UpdateParticipants(st Store, pages *Pages, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := raffleID(r)
		if !ok {
			http.Error(w, "bad raffle id", http.StatusBadRequest)
			return
		}
		if _, err := st.GetRaffle(r.Context(), id); err != nil {
			storeError(w, log, err)
			return
		}
		html, err := pages.TableSource(st)(r.Context(), id)
		if err != nil {
			storeError(w, log, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}

func Index(st Store, pages *Pages, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raffles, err := st.ListRaffles(r.Context())
		if err != nil {
			storeError(w, log, err)
			return
		}
		render(w, log, pages, "index.html", struct{ Raffles []store.Raffle }{raffles})
	}
}

func RafflePage(st Store, pages *Pages, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := raffleID(r)
		if !ok {
			http.Error(w, "bad raffle id", http.StatusBadRequest)
			return
		}
		raffle, err := st.GetRaffle(r.Context(), id)
		if err != nil {
			storeError(w, log, err)
			return
		}
		participants, err := st.Participants(r.Context(), id)
		if err != nil {
			storeError(w, log, err)
			return
		}
		render(w, log, pages, "raffle.html", struct {
			Raffle       *store.Raffle
			Participants []store.Participant
		}{raffle, participants})
	}
}

type createForm struct {
	Title string
	Error string
}

func CreateRaffleForm(pages *Pages, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, log, pages, "create_raffle.html", createForm{})
	}
}

func CreateRaffle(st Store, pages *Pages, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			renderStatus(w, log, pages, http.StatusBadRequest, "create_raffle.html", createForm{Error: "could not read the upload"})
			return
		}

		form := createForm{Title: strings.TrimSpace(r.FormValue("title"))}
		fail := func(msg string) {
			form.Error = msg
			renderStatus(w, log, pages, http.StatusBadRequest, "create_raffle.html", form)
		}

		if form.Title == "" || len([]rune(form.Title)) > 100 {
			fail("title is required (100 characters at most)")
			return
		}
		file, _, err := r.FormFile("participant_file")
		if err != nil {
			fail("participant_file is required")
			return
		}
		defer file.Close()

		entries, err := ParseParticipants(file)
		if err != nil {
			fail(err.Error())
			return
		}

		raffle, err := st.CreateRaffle(r.Context(), form.Title, adminFrom(r.Context()), entries)
		if err != nil {
			storeError(w, log, err)
			return
		}
		log.Info("New raffle created", zap.Int64("raffle_id", raffle.ID), zap.Int("participants", len(entries)))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func Healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func render(w http.ResponseWriter, log *zap.Logger, pages *Pages, name string, data any) {
	renderStatus(w, log, pages, http.StatusOK, name, data)
}

func renderStatus(w http.ResponseWriter, log *zap.Logger, pages *Pages, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.Render(w, name, data); err != nil {
		log.Error("render page", zap.String("page", name), zap.Error(err))
	}
}
