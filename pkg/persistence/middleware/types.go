// Package middleware wraps a KVStore with cross-cutting behavior.
package middleware

import "github.com/aretw0/tourguide/pkg/ports"

// Middleware allows wrapping a KVStore to add behavior.
type Middleware func(ports.KVStore) ports.KVStore

// Chain applies mws so the first one is the outermost.
func Chain(kv ports.KVStore, mws ...Middleware) ports.KVStore {
	for i := len(mws) - 1; i >= 0; i-- {
		kv = mws[i](kv)
	}
	return kv
}
