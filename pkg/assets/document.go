package assets

import (
	"sync"

	"github.com/aretw0/tourguide/pkg/domain"
)

// Document is an in-memory ResourceHead.
// Safe for concurrent use.
type Document struct {
	mu    sync.Mutex
	nodes []*domain.ResourceNode
}

// NewDocument creates an empty document head.
func NewDocument() *Document {
	return &Document{}
}

// Attach appends node.
func (d *Document) Attach(node *domain.ResourceNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, node)
}

// Detach removes node if attached.
func (d *Document) Detach(node *domain.ResourceNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, n := range d.nodes {
		if n == node {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			return
		}
	}
}

// Nodes returns a snapshot of the attached nodes, in order.
func (d *Document) Nodes() []domain.ResourceNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.ResourceNode, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = *n
	}
	return out
}

// Has reports whether a loaded node of kind is attached.
func (d *Document) Has(kind domain.AssetKind) bool {
	for _, n := range d.Nodes() {
		if n.Kind == kind && n.Loaded {
			return true
		}
	}
	return false
}

// MarkLoaded flags node as the winner of its race.
func (d *Document) MarkLoaded(node *domain.ResourceNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node.Loaded = true
}
