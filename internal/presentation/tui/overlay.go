package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// Overlay is a terminal step-overlay engine. Each step is printed as a
// markdown popover and the user advances with "next" or closes with "close".
type Overlay struct {
	in     io.Reader
	out    io.Writer
	render func(string) (string, error)

	mu     sync.Mutex
	opts   domain.OverlayOptions
	steps  []domain.Step
	cursor int
	lines  chan lineResult
	once   sync.Once

	done      chan struct{}
	closeOnce sync.Once
	pumpDone  chan struct{}
}

var _ ports.Overlay = (*Overlay)(nil)

type lineResult struct {
	text string
	err  error
}

// OverlayOption configures an Overlay.
type OverlayOption func(*Overlay)

// WithRenderer sets the markdown renderer.
func WithRenderer(render func(string) (string, error)) OverlayOption {
	return func(o *Overlay) {
		o.render = render
	}
}

// NewOverlay creates an overlay reading commands from in and writing to out.
func NewOverlay(in io.Reader, out io.Writer, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		in:     in,
		out:    out,
		render: PlainRenderer,
		opts:   domain.DefaultOverlayOptions(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Overlay) Configure(opts domain.OverlayOptions) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
	return nil
}

func (o *Overlay) DefineSteps(steps []domain.Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("no steps to define")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append([]domain.Step(nil), steps...)
	o.cursor = 0
	return nil
}

func (o *Overlay) HasNextStep() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor < len(o.steps)-1
}

// Start shows the first step and processes commands until the tour is finished,
// closed, the input ends, or ctx is cancelled.
func (o *Overlay) Start(ctx context.Context) error {
	o.mu.Lock()
	if len(o.steps) == 0 {
		o.mu.Unlock()
		return fmt.Errorf("no steps defined")
	}
	o.cursor = 0
	o.mu.Unlock()

	o.once.Do(func() {
		o.lines = make(chan lineResult)
		o.pumpDone = make(chan struct{})
		go o.pump()
	})

	for {
		o.show()

		var line lineResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-o.lines:
			if !ok {
				l = lineResult{err: io.EOF}
			}
			line = l
		}
		if line.err != nil {
			// End of input closes the overlay.
			o.deselect()
			return nil
		}

		switch cmd := strings.ToLower(strings.TrimSpace(line.text)); cmd {
		case "", "n", "next":
			if o.next() {
				return nil
			}
		case "p", "prev", "previous":
			o.previous()
		case "q", "x", "close", "exit":
			if o.closeAllowed() {
				o.deselect()
				return nil
			}
			fmt.Fprintln(o.out, "Closing is disabled for this tour.")
		default:
			fmt.Fprintf(o.out, "Unknown command %q.\n", cmd)
		}
	}
}

// next fires OnNext and moves the cursor. Returns true when the tour is over.
func (o *Overlay) next() bool {
	o.mu.Lock()
	onNext := o.opts.OnNext
	last := o.cursor >= len(o.steps)-1
	o.mu.Unlock()

	if onNext != nil {
		onNext()
	}
	if last {
		o.deselect()
		return true
	}

	o.mu.Lock()
	o.cursor++
	o.mu.Unlock()
	return false
}

func (o *Overlay) previous() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cursor > 0 {
		o.cursor--
	}
}

func (o *Overlay) closeAllowed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts.AllowClose
}

func (o *Overlay) deselect() {
	o.mu.Lock()
	onDeselected := o.opts.OnDeselected
	o.mu.Unlock()
	if onDeselected != nil {
		onDeselected()
	}
}

func (o *Overlay) show() {
	o.mu.Lock()
	step := o.steps[o.cursor]
	idx, total := o.cursor, len(o.steps)
	opts := o.opts
	o.mu.Unlock()

	text, err := o.render(stepMarkdown(step, idx, total))
	if err != nil {
		text = stepMarkdown(step, idx, total)
	}
	fmt.Fprintln(o.out, strings.TrimRight(text, "\n"))

	nextLabel := opts.NextBtnText
	if idx == total-1 {
		nextLabel = opts.DoneBtnText
	}
	prompt := fmt.Sprintf("[enter] %s", nextLabel)
	if idx > 0 {
		prompt += fmt.Sprintf("  [p] %s", opts.PrevBtnText)
	}
	if opts.AllowClose {
		prompt += fmt.Sprintf("  [q] %s", opts.CloseBtnText)
	}
	fmt.Fprintf(o.out, "%s > ", prompt)
}

func stepMarkdown(step domain.Step, idx, total int) string {
	var b strings.Builder
	title := step.Popover.Title
	if title == "" {
		title = step.Element
	}
	fmt.Fprintf(&b, "## %s\n\n", title)
	if step.Popover.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", step.Popover.Description)
	}
	fmt.Fprintf(&b, "_Step %d of %d_ `%s`\n", idx+1, total, step.Element)
	return b.String()
}

// Close stops delivering input. A read already blocked on the input returns
// only when the input does.
func (o *Overlay) Close() error {
	o.closeOnce.Do(func() { close(o.done) })
	return nil
}

func (o *Overlay) pump() {
	defer close(o.pumpDone)
	r := bufio.NewReader(o.in)
	for {
		text, err := r.ReadString('\n')
		if text != "" {
			select {
			case o.lines <- lineResult{text: text}:
			case <-o.done:
				return
			}
		}
		if err != nil {
			close(o.lines)
			return
		}
	}
}
