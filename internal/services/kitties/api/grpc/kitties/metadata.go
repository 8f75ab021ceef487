package kitties

import (
	"context"
	"strconv"
	"strings"

	"github.com/louisbranch/kitties/internal/platform/id"
	"github.com/louisbranch/kitties/internal/platform/requestctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AccountIDHeader carries the calling account. It is trusted as given.
const AccountIDHeader = "x-kitties-account-id"

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "x-kitties-request-id"

// LocaleHeader selects the locale of error messages.
const LocaleHeader = "x-kitties-locale"

// WithCaller returns an outgoing context carrying the caller account.
func WithCaller(ctx context.Context, accountID uint64) context.Context {
	return metadata.AppendToOutgoingContext(ctx, AccountIDHeader, strconv.FormatUint(accountID, 10))
}

// UnaryServerInterceptor resolves request metadata on unary calls. Every call
// gets a request id, generated when the client sent none, echoed back in the
// response headers and recorded on the active span. A present but malformed
// caller header is rejected.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		requestID := firstMetadataValue(md, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		span := trace.SpanFromContext(ctx)
		span.SetAttributes(attribute.String("kitties.request_id", requestID))

		if raw := firstMetadataValue(md, AccountIDHeader); raw != "" {
			accountID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "%s must be an unsigned integer", AccountIDHeader)
			}
			ctx = requestctx.WithAccountID(ctx, accountID)
			span.SetAttributes(attribute.String("kitties.account_id", strconv.FormatUint(accountID, 10)))
		}

		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

func localeFromContext(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	return firstMetadataValue(md, LocaleHeader)
}

// firstMetadataValue returns the first printable ASCII value for key.
func firstMetadataValue(md metadata.MD, key string) string {
	for _, value := range md.Get(key) {
		if isPrintableASCII(value) {
			return value
		}
	}
	return ""
}

func isPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}
