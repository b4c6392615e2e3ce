package retry

import (
	"context"
	"strings"

	"google.golang.org/grpc"
)

// MethodKind maps a full gRPC method name ("/pkg.Service/Method") to the
// operation kind. ok=false leaves the method alone, which is how callers
// exempt RPCs that are already retried further up the stack.
type MethodKind func(fullMethod string) (kind Kind, ok bool)

// MethodKinds builds a MethodKind from bare method names ("Query",
// "Upsert", ...). Methods not listed pass through untouched.
func MethodKinds(kinds map[string]Kind) MethodKind {
	return func(fullMethod string) (Kind, bool) {
		name := fullMethod[strings.LastIndex(fullMethod, "/")+1:]
		k, ok := kinds[name]
		return k, ok
	}
}

// UnaryClientInterceptor applies the policy to unary RPCs, for use with
// grpc.WithChainUnaryInterceptor. Idempotency keys for writes come from
// WithIdempotencyKey on the call context.
func (ic *Interceptor) UnaryClientInterceptor(kindOf MethodKind) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		kind, ok := kindOf(method)
		if !ok {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		return ic.Run(ctx, Op{Name: method, Kind: kind}, func(ctx context.Context) error {
			return invoker(ctx, method, req, reply, cc, opts...)
		})
	}
}
