/*
Package tourguide decides when to show an in-product guided tour and runs it.

A tour is a short sequence of highlighted steps attached to one page of a host
application. The host supplies a configuration document mapping navigation paths
to pages and pages to steps, plus an overlay engine that renders the steps.
Tourguide loads the overlay assets from a list of mirrors, fetches the
configuration, resolves the current path and asks the visibility policy whether
the tour should start.

# Visibility Policy

Each page has two persisted records: when the tour was last dismissed (or that
it was completed) and how many times it was dismissed. A completed tour never
starts again on its own. A dismissed tour comes back after a cool-down of n^4
hours, where n is the dismissal count; after four dismissals it stays away.
The "start tutorial" element of a page always starts the tour, regardless of
the policy.

# Usage

	guide := tourguide.New(overlay, page,
		tourguide.WithConfigLocation("https://example.com/driver.config.json"),
		tourguide.WithStore(store),
		tourguide.WithVisitor("user-42"),
	)
	if err := guide.Run(ctx); err != nil {
		log.Fatal(err)
	}

# Adapters

Records live in any ports.KVStore: memory, files on disk or Redis. The
configuration can come from a URL, a JSON or YAML file, or a directory of page
documents. The tourguide command runs tours in a terminal and serves the
policy over HTTP for page-embedded clients.
*/
package tourguide
