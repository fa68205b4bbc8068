package retry

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkBackoff_ImmediateSuccess measures overhead when the first
// attempt succeeds (the common case).
func BenchmarkBackoff_ImmediateSuccess(b *testing.B) {
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(_ int) error { return nil }) //nolint:errcheck
	}
}

// BenchmarkBackoff_PermanentError measures early-exit overhead.
func BenchmarkBackoff_PermanentError(b *testing.B) {
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(_ int) error { //nolint:errcheck
			return Permanent(fmt.Errorf("fatal"))
		})
	}
}

// BenchmarkBackoff_RetryIfRejects measures the early exit taken when
// RetryIf refuses an error, as a flush does for non-lock failures.
func BenchmarkBackoff_RetryIfRejects(b *testing.B) {
	bo := StorageBackoff(5)
	bo.RetryIf = func(error) bool { return false }
	ctx := context.Background()
	fail := fmt.Errorf("constraint failed")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(_ int) error { return fail }) //nolint:errcheck
	}
}

// BenchmarkJitter measures the jitter helper without backoff overhead.
func BenchmarkJitter(b *testing.B) {
	d := 100 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = addJitter(d)
	}
}
