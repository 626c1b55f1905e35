package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Disposition states what happened to one manifest row.
type Disposition string

const (
	RowAccepted  Disposition = "accepted"
	RowTooShort  Disposition = "too_short"
	RowInvalid   Disposition = "invalid"
	RowDuplicate Disposition = "duplicate"
)

// Outcome reports one processed row, line numbers starting at 1.
type Outcome struct {
	Line        int
	ClipID      string
	Disposition Disposition
	Detail      string
}

// Row is a parsed manifest row.
type Row struct {
	ClipID string
	Start  float64
	End    float64
}

// Clip ids become file names, so only path-safe tokens are accepted.
var clipIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidClipID reports whether id is a path-safe clip token.
func ValidClipID(id string) bool {
	return clipIDPattern.MatchString(id)
}

// parseRow validates one CSV record. Records carry at least id,start,end;
// trailing columns (the manifest's face center hints) are ignored.
func parseRow(record []string) (Row, error) {
	if len(record) < 3 {
		return Row{}, fmt.Errorf("expected at least 3 columns, got %d", len(record))
	}
	clipID := strings.TrimSpace(record[0])
	if !ValidClipID(clipID) {
		return Row{}, fmt.Errorf("clip id %q is not a path-safe token", clipID)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("start %q is not a number", record[1])
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("end %q is not a number", record[2])
	}
	if start < 0 || end <= start {
		return Row{}, fmt.Errorf("interval [%v, %v] is not a forward range", start, end)
	}
	return Row{ClipID: clipID, Start: start, End: end}, nil
}

// Window returns the start of a clipDuration-long window centered inside
// the row's interval.
func (r Row) Window(clipDuration float64) float64 {
	return (r.Start+r.End)/2 - clipDuration/2
}
