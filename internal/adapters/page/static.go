// Package page provides an in-memory host page for the tour controller.
package page

import (
	"fmt"
	"sync"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// Static is a page with a fixed path and a mutable set of selectors.
// Clicking an element can reveal further selectors, which models menus opening.
type Static struct {
	mu       sync.Mutex
	path     string
	present  map[string]bool
	reveals  map[string][]string
	handlers map[string][]func()
	clicks   []string
	// open pages hold every selector that was not removed.
	open    bool
	removed map[string]bool
}

var _ ports.Page = (*Static)(nil)

// New creates a page at path holding the given selectors.
func New(path string, selectors ...string) *Static {
	p := &Static{
		path:     path,
		present:  make(map[string]bool),
		reveals:  make(map[string][]string),
		handlers: make(map[string][]func()),
	}
	p.Add(selectors...)
	return p
}

// NewOpen creates a page at path on which every selector is present unless
// removed. A terminal has no document, so every step target counts as shown.
func NewOpen(path string) *Static {
	p := New(path)
	p.open = true
	p.removed = make(map[string]bool)
	return p
}

// FromConfig creates a page at path holding every selector the configuration
// refers to for that path.
func FromConfig(path string, cfg *domain.TourConfig) *Static {
	p := New(path, cfg.ForceStartSelector(path))
	page, err := cfg.ResolvePage(path)
	if err != nil {
		return p
	}
	for _, step := range cfg.Steps(page) {
		p.Add(step.Element, step.Popover.HopeElement, step.Popover.NextClick)
	}
	return p
}

func (p *Static) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Navigate changes the current path.
func (p *Static) Navigate(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
}

// Add makes selectors present. Empty selectors are ignored.
func (p *Static) Add(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		if s != "" {
			p.present[s] = true
			delete(p.removed, s)
		}
	}
}

// Remove makes a selector absent.
func (p *Static) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.present, selector)
	if p.open {
		p.removed[selector] = true
	}
}

func (p *Static) has(selector string) bool {
	if p.present[selector] {
		return true
	}
	return p.open && selector != "" && !p.removed[selector]
}

// RevealOnClick makes revealed present once selector is clicked.
func (p *Static) RevealOnClick(selector string, revealed ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reveals[selector] = append(p.reveals[selector], revealed...)
}

func (p *Static) Query(selector string) (ports.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.has(selector) {
		return nil, false
	}
	return element{page: p, selector: selector}, true
}

func (p *Static) OnClick(selector string, fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.has(selector) {
		return false
	}
	p.handlers[selector] = append(p.handlers[selector], fn)
	return true
}

// Click simulates a user click on selector.
func (p *Static) Click(selector string) error {
	p.mu.Lock()
	if !p.has(selector) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrMissingStepTarget, selector)
	}
	p.clicks = append(p.clicks, selector)
	for _, s := range p.reveals[selector] {
		p.present[s] = true
	}
	handlers := append([]func(){}, p.handlers[selector]...)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

// Clicks returns the clicked selectors in order.
func (p *Static) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

type element struct {
	page     *Static
	selector string
}

func (e element) Click() error {
	return e.page.Click(e.selector)
}
