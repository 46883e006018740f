package rules

import (
	"fmt"
	"strings"
)

// ExportICS renders results as a minimal iCalendar document: one VEVENT
// per deadline, tagged CATEGORIES=Legal,Deadline so calendar clients can
// filter on it.
func ExportICS(jurisdiction string, results []DeadlineResult) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//rexlit//rules//EN\r\n")
	for _, r := range results {
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s-%s-%d@rexlit\r\n", jurisdiction, r.Name, r.ResolvedAt.Unix())
		fmt.Fprintf(&b, "DTSTART:%s\r\n", r.ResolvedAt.UTC().Format("20060102T150405Z"))
		fmt.Fprintf(&b, "SUMMARY:%s: %s\r\n", jurisdiction, icalEscape(r.Name))
		fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", icalEscape(r.Cite+"\n"+r.Notes))
		b.WriteString("CATEGORIES:Legal,Deadline\r\n")
		b.WriteString("END:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

// icalEscape escapes the characters iCalendar's TEXT value type requires
// escaped: backslash, semicolon, comma, and newline.
func icalEscape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
