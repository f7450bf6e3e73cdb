package visibility

import (
	"context"

	"github.com/aretw0/tourguide/pkg/ports"
)

// Namespace scopes every key of kv under ns, so several visitors can share one backend.
func Namespace(kv ports.KVStore, ns string) ports.KVStore {
	if ns == "" {
		return kv
	}
	return &namespaced{kv: kv, prefix: ns + "."}
}

type namespaced struct {
	kv     ports.KVStore
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.prefix+key)
}
