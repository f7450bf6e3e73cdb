/*
Package ports defines the driven ports (interfaces) of tourguide.

These interfaces decouple the onboarding core from the host page, the overlay engine
and the persistence backend, so that each can be swapped for tests or new frontends.

# Key Interfaces

  - KVStore: durable medium holding the visibility records (memory, file, redis).
  - DistributedLocker: serializes read-modify-write across processes.
  - ResourceHead: document section where asset nodes are attached.
  - Page / Element: the host page (current path, query, click).
  - Overlay: the external step-overlay engine.
  - ConfigSource: where the tour configuration comes from.
  - Reporter: fire-and-forget diagnostics.
*/
package ports
