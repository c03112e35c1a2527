package verification

import (
	"context"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/kv"
)

// CodeStore records the outstanding single-use code per (identity, purpose).
// Put overwrites: a newly generated code invalidates any prior one.
type CodeStore struct {
	store kv.Store
}

func NewCodeStore(store kv.Store) *CodeStore {
	return &CodeStore{store: store}
}

func (c *CodeStore) Put(ctx context.Context, id domain.Identity, purpose domain.Purpose, code string, ttl time.Duration) error {
	return c.store.Set(ctx, kv.VerificationCodeKey(id, purpose), code, ttl)
}

// Consume atomically compares and deletes the stored code. A single store
// operation guarantees each code is consumed at most once even under
// concurrent verification attempts. On mismatch or absence it returns false
// and leaves the stored code untouched, so a wrong guess does not burn the
// real code.
func (c *CodeStore) Consume(ctx context.Context, id domain.Identity, purpose domain.Purpose, submitted string) (bool, error) {
	if submitted == "" {
		return false, nil
	}
	return c.store.DeleteIfEquals(ctx, kv.VerificationCodeKey(id, purpose), submitted)
}
