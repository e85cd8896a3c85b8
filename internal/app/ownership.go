package app

import (
	"context"

	"jobflow/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OwnedLookup fetches a resource by id restricted to ownerID in a single
// store operation, returning (nil, nil) when nothing matches both.
type OwnedLookup[T any] func(ctx context.Context, id, ownerID string) (*T, error)

// Authorize returns the resource identified by id if ownerID owns it.
//
// Ownership is never checked after the fact: lookup applies both predicates,
// so an absent resource and one owned by someone else produce the same
// KindNotFound error and are indistinguishable to the caller.
func Authorize[T any](ctx context.Context, op string, lookup OwnedLookup[T], id, ownerID string) (*T, error) {
	ctx, span := tracer.Start(ctx, "authorize", trace.WithAttributes(
		attribute.String("authz.op", op),
	))
	defer span.End()

	if id == "" || ownerID == "" {
		span.SetAttributes(attribute.Bool("authz.allowed", false))
		return nil, domain.NotFound(op)
	}
	res, err := lookup(ctx, id, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, domain.Internal(op, err)
	}
	if res == nil {
		span.SetAttributes(attribute.Bool("authz.allowed", false))
		return nil, domain.NotFound(op)
	}
	span.SetAttributes(attribute.Bool("authz.allowed", true))
	return res, nil
}

// mutated converts the result of an owner-scoped conditional write into the
// same outcome Authorize would give: a miss is NotFound.
func mutated(op string, ok bool, err error) error {
	if err != nil {
		return domain.Internal(op, err)
	}
	if !ok {
		return domain.NotFound(op)
	}
	return nil
}
