package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/raffle-slots/internal/logging"
)

type Deps struct {
	Store       Store
	Draws       Drawer
	Pages       *Pages
	Admin       Admin
	Health      Pinger       // optional
	LiveTable   http.Handler // websocket endpoint, optional
	CORSOrigins []string
	Log         *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler)

	// Public routes
	r.Get("/", Index(d.Store, d.Pages, log))
	r.Get("/raffle/{id}/", RafflePage(d.Store, d.Pages, log))
	r.Get("/raffle/{id}/update_participants/", UpdateParticipants(d.Store, d.Pages, log))
	r.Get("/draw/{id}/", Draw(d.Draws, log))
	r.Get("/healthz", Healthz(d.Health))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles()))))
	if d.LiveTable != nil {
		r.Get("/ws", d.LiveTable.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(d.Admin))
		r.Get("/create-raffle/", CreateRaffleForm(d.Pages, log))
		r.Post("/create-raffle/", CreateRaffle(d.Store, d.Pages, log))
	})
	return r
}
