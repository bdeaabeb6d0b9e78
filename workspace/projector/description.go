package projector

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// LastModifiedDescription renders "Modified <relative time> by <user>" relative
// to now. It returns "" when either the time or the user is missing.
func LastModifiedDescription(modified time.Time, user string, now time.Time) string {
	if modified.IsZero() || user == "" {
		return ""
	}
	return fmt.Sprintf("Modified %s by %s", humanize.RelTime(modified, now, "ago", "from now"), user)
}
