/*
Package tour drives one guided tour on one page.

The Controller loads the overlay assets, fetches the tour configuration, resolves
the current page and asks the policy whether the tour should start. Once running,
the overlay engine calls back into the controller on every step advance and on
dismissal; those callbacks are the only writers of the visibility records.

	ctrl := tour.New(pol, overlay, page,
		tour.WithAssets(loader, css, js),
		tour.WithConfigSource(src),
	)
	err := ctrl.Run(ctx)
*/
package tour
