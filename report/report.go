// Package report formats queue status, jobs and tick logs for display.
//
// Every function here is read-only: it takes values produced by the
// jobqueue package and returns text.
package report

import (
	"fmt"
	"strings"

	"github.com/azargarov/jobqueue"
)

// Render formats a status snapshot.
func Render(s jobqueue.Status) string {
	var b strings.Builder
	b.WriteString("--- Queue Status ---\n")
	fmt.Fprintf(&b, "Size: %d/%d\n", s.Size, s.Capacity)
	fmt.Fprintf(&b, "Is Empty: %s\n", yesNo(s.IsEmpty))
	fmt.Fprintf(&b, "Is Full: %s\n", yesNo(s.IsFull))
	b.WriteString("--------------------\n")
	return b.String()
}

// RenderJob formats a single job.
func RenderJob(j jobqueue.Job) string {
	return fmt.Sprintf("Job ID: %s\nUser: %s, Priority: %d\nWaiting time: %.2fs\n",
		j.ID, j.SubmitterID, j.Priority, j.WaitingTime.Seconds())
}

// AgingLine formats one aging event.
func AgingLine(e jobqueue.AgingEvent) string {
	return fmt.Sprintf("[AGING] %s: Priority %d → %d", e.JobID, e.OldPriority, e.NewPriority)
}

// ExpiryLine formats one expiry event.
func ExpiryLine(e jobqueue.ExpiryEvent) string {
	return fmt.Sprintf("[EXPIRED] %s: Removed after %.1fs", e.JobID, e.WaitingTime.Seconds())
}

// RenderTick formats the events of one tick followed by its status.
func RenderTick(l jobqueue.TickLog) string {
	var b strings.Builder
	for _, ln := range tickLines(l) {
		b.WriteString(ln.text)
		b.WriteByte('\n')
	}
	b.WriteString(Render(l.Status))
	return b.String()
}

type lineKind int

const (
	headerLine lineKind = iota
	agingLine
	expiryLine
)

type tickLine struct {
	kind lineKind
	text string
}

// tickLines lists the header and event lines of a tick, without the status.
func tickLines(l jobqueue.TickLog) []tickLine {
	lines := make([]tickLine, 0, 1+len(l.Aged)+len(l.Expired))
	lines = append(lines, tickLine{headerLine, fmt.Sprintf("=== TICK %d ===", l.Tick)})
	for _, e := range l.Aged {
		lines = append(lines, tickLine{agingLine, AgingLine(e)})
	}
	for _, e := range l.Expired {
		lines = append(lines, tickLine{expiryLine, ExpiryLine(e)})
	}
	return lines
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
