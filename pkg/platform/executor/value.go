package executor

import (
	"context"

	"ordercore/pkg/platform/interceptor"
)

// ExecuteValue is Execute for actions that produce a result. The value is
// only returned when the transaction committed; a conflict or rollback
// yields the zero value.
func ExecuteValue[T any](ctx context.Context, s *Scope, actionName string, opts Options, action func(ctx context.Context, cs *interceptor.ChangeSet) (T, error)) (T, error) {
	var out T
	err := s.Execute(ctx, actionName, opts, func(ctx context.Context, cs *interceptor.ChangeSet) error {
		v, err := action(ctx, cs)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
