package kitties

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kitties.v1.KittyService"

// Method names served by KittyService.
const (
	MethodCreateKitty   = "CreateKitty"
	MethodBreedKitty    = "BreedKitty"
	MethodTransferKitty = "TransferKitty"
	MethodListKitty     = "ListKitty"
	MethodBuyKitty      = "BuyKitty"
	MethodGetKitty      = "GetKitty"
	MethodGetBalance    = "GetBalance"
	MethodListEvents    = "ListEvents"
	MethodVerifyEvents  = "VerifyEvents"
)

// KittyServiceServer is the server API for KittyService.
type KittyServiceServer interface {
	CreateKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BreedKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransferKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BuyKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetKitty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverMethod func(KittyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// KittyServiceDesc describes KittyService for grpc.ServiceRegistrar.
var KittyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KittyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodCreateKitty, KittyServiceServer.CreateKitty),
		unaryMethod(MethodBreedKitty, KittyServiceServer.BreedKitty),
		unaryMethod(MethodTransferKitty, KittyServiceServer.TransferKitty),
		unaryMethod(MethodListKitty, KittyServiceServer.ListKitty),
		unaryMethod(MethodBuyKitty, KittyServiceServer.BuyKitty),
		unaryMethod(MethodGetKitty, KittyServiceServer.GetKitty),
		unaryMethod(MethodGetBalance, KittyServiceServer.GetBalance),
		unaryMethod(MethodListEvents, KittyServiceServer.ListEvents),
		unaryMethod(MethodVerifyEvents, KittyServiceServer.VerifyEvents),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kitties/v1/kitties.proto",
}

// RegisterKittyServiceServer registers srv on s.
func RegisterKittyServiceServer(s grpc.ServiceRegistrar, srv KittyServiceServer) {
	s.RegisterService(&KittyServiceDesc, srv)
}

func unaryMethod(name string, call serverMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KittyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KittyServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// KittyServiceClient calls KittyService methods by name.
type KittyServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewKittyServiceClient returns a client over cc.
func NewKittyServiceClient(cc grpc.ClientConnInterface) *KittyServiceClient {
	return &KittyServiceClient{cc: cc}
}

// Call invokes method with in and returns the response document.
func (c *KittyServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
