package slot

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	AlertWin  = "Congratulations!"
	AlertLoss = "You lost!"
)

// Presenter is the page the controller draws on.
type Presenter interface {
	SetLane(lane int, text string)
	// AppendLog adds a line to the output panel and keeps it scrolled to the end.
	AppendLog(line string)
	ShowBanner(msg string)
	DismissBanner()
	EnableSpin(on bool)
	EnableRepeat(on bool)
	ShowTable(fragment string)
}

// AlertFor picks the banner text. In elimination mode the drawn participant
// loses a ticket, so a hit is bad news.
func AlertFor(hasWinner, elimination bool) string {
	switch {
	case hasWinner && !elimination:
		return AlertWin
	case hasWinner && elimination:
		return AlertLoss
	default:
		return ""
	}
}

// TerminalPresenter renders the machine on a line-oriented terminal. The
// reel line is redrawn in place; log lines scroll above it.
type TerminalPresenter struct {
	mu    sync.Mutex
	out   io.Writer
	lanes [NumLanes]string
}

func NewTerminalPresenter(out io.Writer) *TerminalPresenter {
	return &TerminalPresenter{out: out}
}

func (p *TerminalPresenter) SetLane(lane int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lane < 0 || lane >= NumLanes {
		return
	}
	p.lanes[lane] = text
	p.redraw()
}

func (p *TerminalPresenter) AppendLog(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r\033[K%s\n", line)
	p.redraw()
}

func (p *TerminalPresenter) ShowBanner(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r\033[K*** %s ***\n", msg)
	p.redraw()
}

func (p *TerminalPresenter) DismissBanner() {}
func (p *TerminalPresenter) EnableSpin(bool) {}
func (p *TerminalPresenter) EnableRepeat(bool) {}

func (p *TerminalPresenter) ShowTable(fragment string) {
	rows, err := TableRows(fragment)
	if err != nil || len(rows) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "\r\033[K")
	for _, row := range rows {
		fmt.Fprintln(p.out, strings.Join(row, " | "))
	}
	p.redraw()
}

func (p *TerminalPresenter) redraw() {
	fmt.Fprintf(p.out, "\r\033[K[ %s | %s | %s ]", p.lanes[0], p.lanes[1], p.lanes[2])
}

// TableRows flattens every <tr> of an HTML fragment into its cell texts.
func TableRows(fragment string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse table fragment: %w", err)
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, strings.TrimSpace(textOf(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows, nil
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
