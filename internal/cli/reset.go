package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/visibility"
)

// Reset deletes the visitor's persisted records, or the records of a single page.
func Reset(ctx context.Context, b *Backend, visitor string, page domain.PageID) error {
	if page == "" {
		kv := visibility.Namespace(b.KV, visitor)
		var errs []error
		for _, key := range []string{domain.KeyViewed, domain.KeyDismissCount} {
			if err := kv.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			}
		}
		return errors.Join(errs...)
	}

	store := NewPolicy(b, visitor, nil).Store()
	return store.Update(ctx, func(viewed domain.ViewedRecord, counts domain.DismissCount) error {
		delete(viewed, page)
		delete(counts, page)
		return nil
	})
}
