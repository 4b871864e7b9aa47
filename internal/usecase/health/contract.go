package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SearchChecker checks that the hosted search service answers.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to SearchChecker.
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
