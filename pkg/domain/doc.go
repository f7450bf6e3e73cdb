/*
Package domain contains the core models of the tourguide onboarding helper.

It defines the persisted visibility records, the tour configuration read from the
host, the asset requests consumed by the loader and the lifecycle of a single tour.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - PageID: canonical name of a navigable page, the key of all tutorial state.
  - ViewedRecord / DismissCount: the two persisted per-page records.
  - TourConfig: page mapping, step lists and overlay options supplied by the host.
  - AssetRequest / ResourceNode: one logical asset and one attempt to load it.
  - Phase: the state of a single tour instance.
*/
package domain
