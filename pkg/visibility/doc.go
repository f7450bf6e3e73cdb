/*
Package visibility persists the per-page tutorial records.

Two records live in a ports.KVStore under fixed keys: the viewed record
(domain.KeyViewed) and the dismissal counter (domain.KeyDismissCount). Both are
serialized as JSON objects keyed by page identity.

Reads never fail: a missing or corrupt record reads as an empty mapping. Writes are
whole-record read-modify-write cycles; concurrent writers race with last-writer-wins
semantics unless a ports.DistributedLocker is configured.
*/
package visibility
