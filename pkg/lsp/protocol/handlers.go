package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/zerolog"
)

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func applyRequestToZerolog(ctx context.Context, r *jrpc2.Request) context.Context {
	logger := zerolog.Ctx(ctx).With().
		Str("rpc_method", r.Method()).
		Str("rpc_id", r.ID()).
		Logger()
	return logger.WithContext(ctx)
}

// NewHandler wraps a typed request/response method as a jrpc2 handler.
func NewHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = applyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// NewNotificationHandler wraps a typed method without a result, as
// used for client notifications.
func NewNotificationHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = applyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		return nil, method(ctx, &params)
	})
}

// NewEmptyHandler wraps a parameterless method.
func NewEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = applyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	})
}
