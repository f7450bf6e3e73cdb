package ports

import "github.com/aretw0/tourguide/pkg/domain"

// ResourceHead is the document section receiving asset nodes.
type ResourceHead interface {
	// Attach inserts a node for a pending attempt.
	Attach(node *domain.ResourceNode)

	// Detach removes a node. Detaching an unknown node is a no-op.
	Detach(node *domain.ResourceNode)
}

// Element is a node of the host page that can be clicked.
type Element interface {
	Click() error
}

// Page exposes the host page to the controller.
type Page interface {
	// Path returns the current navigation path.
	Path() string

	// Query returns the first element matching selector.
	Query(selector string) (Element, bool)

	// OnClick registers fn for clicks on selector.
	// Returns false when no element matches.
	OnClick(selector string, fn func()) bool
}
