package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/azargarov/jobqueue"
)

var lineColors = map[lineKind]color.Attribute{
	headerLine: color.Bold,
	agingLine:  color.FgYellow,
	expiryLine: color.FgRed,
}

// Printer writes rendered output to w, colouring event lines when enabled.
type Printer struct {
	w       io.Writer
	colored bool
}

func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, colored: colored}
}

func (p *Printer) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if !p.colored {
		c.DisableColor()
	}
	return c
}

// Status writes a status block.
func (p *Printer) Status(s jobqueue.Status) error {
	_, err := fmt.Fprint(p.w, Render(s))
	return err
}

// Tick writes the same text as RenderTick, the header in bold, aging in
// yellow and expiry in red.
func (p *Printer) Tick(l jobqueue.TickLog) error {
	for _, ln := range tickLines(l) {
		if _, err := p.paint(lineColors[ln.kind]).Fprintln(p.w, ln.text); err != nil {
			return err
		}
	}
	return p.Status(l.Status)
}

// Jobs writes each job, or a notice when there are none.
func (p *Printer) Jobs(jobs []jobqueue.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(p.w, "The queue is empty.")
		return err
	}
	for _, j := range jobs {
		if _, err := fmt.Fprint(p.w, RenderJob(j)); err != nil {
			return err
		}
	}
	return nil
}

// Result writes the outcome of one submission.
func (p *Printer) Result(r jobqueue.SubmitResult) error {
	if r.Err != nil {
		_, err := p.paint(color.FgRed).Fprintf(p.w, "Failed to enqueue a job: %v\n", r.Err)
		return err
	}
	_, err := p.paint(color.FgGreen).Fprintf(p.w, "Enqueued: Job ID: %s, User ID: %s, Priority: %d\n",
		r.Job.ID, r.Job.SubmitterID, r.Job.Priority)
	return err
}

// Dequeued writes a job taken out of the queue by Withdraw.
func (p *Printer) Dequeued(j jobqueue.Job) error {
	_, err := p.paint(color.FgCyan).Fprintf(p.w, "Dequeued: Job ID: %s, User ID: %s, Priority: %d\n",
		j.ID, j.SubmitterID, j.Priority)
	return err
}
