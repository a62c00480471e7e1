package market

import (
	"fmt"
	"strings"
)

// DataIntegrityError reports a price source that cannot become a Panel.
// It is fatal for the run and is never retried.
type DataIntegrityError struct {
	Source string // file or directory, if known
	Row    int    // 1-based source line (or data row for NewPanel), 0 when not row specific
	Column string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	var sb strings.Builder
	sb.WriteString("data integrity")
	if e.Source != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&sb, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, " column %q", e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	return sb.String()
}

func withSource(err error, source string) error {
	if die, ok := err.(*DataIntegrityError); ok && die.Source == "" {
		die.Source = source
	}
	return err
}
