package httpapi

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/DoyleJ11/raffle-slots/internal/lobby"
	"github.com/DoyleJ11/raffle-slots/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages renders the HTML pages and the participants table fragment.
type Pages struct {
	tmpl *template.Template
}

func NewPages() (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

func (p *Pages) Render(w io.Writer, name string, data any) error {
	return p.tmpl.ExecuteTemplate(w, name, data)
}

func (p *Pages) ParticipantsFragment(ps []store.Participant) (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf, "participants_table.html", ps); err != nil {
		return "", fmt.Errorf("render participants table: %w", err)
	}
	return buf.String(), nil
}

type ParticipantLister interface {
	Participants(ctx context.Context, raffleID int64) ([]store.Participant, error)
}

// TableSource feeds live tables the same fragment the HTTP endpoint serves.
func (p *Pages) TableSource(st ParticipantLister) lobby.TableFunc {
	return func(ctx context.Context, raffleID int64) (string, error) {
		ps, err := st.Participants(ctx, raffleID)
		if err != nil {
			return "", err
		}
		return p.ParticipantsFragment(ps)
	}
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
