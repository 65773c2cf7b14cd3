package observation

import "context"

// Repository is the append-only price history store. There is deliberately
// no update or delete.
type Repository interface {
	Append(ctx context.Context, o Observation) (Observation, error)
	QueryRange(ctx context.Context, productID string, sinceMillis int64) ([]Observation, error)
	QueryRangeAll(ctx context.Context, sinceMillis int64) ([]Observation, error)
}
