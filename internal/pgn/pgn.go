// Package pgn formats finished or running games as PGN text.
package pgn

import (
	"fmt"
	"strings"
	"time"
)

// movesPerLine is the number of full moves written before a line break.
const movesPerLine = 5

// Header carries the PGN tag pairs. Empty optional tags are omitted.
type Header struct {
	Event  string
	Site   string
	Date   time.Time
	White  string
	Black  string
	Result string

	ECO         string
	Opening     string
	TimeControl string
	Termination string
}

// Row is one numbered line of the move list: a white move and, once played, the black reply.
type Row struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

// Rows groups a flat notation list into numbered full moves.
func Rows(moves []string) []Row {
	rows := make([]Row, 0, (len(moves)+1)/2)
	for i := 0; i < len(moves); i += 2 {
		r := Row{Number: i/2 + 1, White: strings.TrimSpace(moves[i])}
		if i+1 < len(moves) {
			r.Black = strings.TrimSpace(moves[i+1])
		}
		rows = append(rows, r)
	}
	return rows
}

// Build renders headers, numbered move text and the trailing result token.
func Build(h Header, moves []string) string {
	result := strings.TrimSpace(h.Result)
	if result == "" {
		result = "*"
	}
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}

	var b strings.Builder
	writeTag(&b, "Event", h.Event)
	writeTag(&b, "Site", h.Site)
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	writeTag(&b, "White", h.White)
	writeTag(&b, "Black", h.Black)
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	if v := Sanitize(h.ECO); v != "" {
		writeTag(&b, "ECO", v)
	}
	if v := Sanitize(h.Opening); v != "" {
		writeTag(&b, "Opening", v)
	}
	if v := Sanitize(h.TimeControl); v != "" {
		writeTag(&b, "TimeControl", v)
	}
	if v := Sanitize(h.Termination); v != "" {
		writeTag(&b, "Termination", v)
	}
	b.WriteString("\n")
	b.WriteString(MoveText(moves))
	if len(moves) > 0 {
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

// MoveText numbers the moves and breaks the line after every fifth full move.
func MoveText(moves []string) string {
	var b strings.Builder
	for _, r := range Rows(moves) {
		if b.Len() > 0 {
			if (r.Number-1)%movesPerLine == 0 {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		fmt.Fprintf(&b, "%d. %s", r.Number, r.White)
		if r.Black != "" {
			b.WriteString(" ")
			b.WriteString(r.Black)
		}
	}
	return b.String()
}

func writeTag(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "[%s \"%s\"]\n", name, Sanitize(value))
}

// Sanitize strips characters that would break a quoted tag value.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
