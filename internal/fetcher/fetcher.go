package fetcher

import (
	"context"

	"github.com/paideia-dao/paideia-site/internal/resource"
	"github.com/paideia-dao/paideia-site/pkg/failure"
)

// Fetcher performs one upstream read for a key and decodes it into the
// key's payload shape. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, key resource.Key) (FetchResult, failure.ClassifiedError)
}

type revalidationKey struct{}

// WithRevalidation marks ctx as an explicit revalidation: shared copies of
// the body must not answer it, the upstream has to be asked.
func WithRevalidation(ctx context.Context) context.Context {
	return context.WithValue(ctx, revalidationKey{}, true)
}

func IsRevalidation(ctx context.Context) bool {
	forced, _ := ctx.Value(revalidationKey{}).(bool)
	return forced
}
