package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/raffle-slots/internal/store"
)

var ErrBadUpload = errors.New("bad participants file")

// ParseParticipants reads a CSV upload with a Name,Tickets header. Column
// order is free and extra columns are ignored.
func ParseParticipants(r io.Reader) ([]store.NewParticipant, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrBadUpload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
	}

	nameCol, ticketsCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "name":
			nameCol = i
		case "tickets":
			ticketsCol = i
		}
	}
	if nameCol < 0 || ticketsCol < 0 {
		return nil, fmt.Errorf("%w: header must contain Name and Tickets", ErrBadUpload)
	}

	var out []store.NewParticipant
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
		}
		if len(rec) <= nameCol || len(rec) <= ticketsCol {
			return nil, fmt.Errorf("%w: line %d: missing columns", ErrBadUpload, line)
		}

		name := norm.NFC.String(strings.TrimSpace(rec[nameCol]))
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty name", ErrBadUpload, line)
		}
		if len([]rune(name)) > 100 {
			return nil, fmt.Errorf("%w: line %d: name longer than 100 characters", ErrBadUpload, line)
		}
		tickets, err := strconv.Atoi(strings.TrimSpace(rec[ticketsCol]))
		if err != nil || tickets < 0 {
			return nil, fmt.Errorf("%w: line %d: tickets must be a whole number >= 0", ErrBadUpload, line)
		}
		out = append(out, store.NewParticipant{Name: name, Tickets: tickets})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrBadUpload)
	}
	return out, nil
}
