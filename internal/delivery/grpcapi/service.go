package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service. Requests and replies are
// google.protobuf.Struct so that callers need no generated stubs.
const ServiceName = "payu.v1.PaymentService"

type PaymentServiceServer interface {
	InitiatePayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestRefund(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRefundSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelRefund(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWebhooks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReprocessWebhook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GatewayQuery(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PaymentServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PaymentServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PaymentServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var PaymentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("InitiatePayment", PaymentServiceServer.InitiatePayment),
		unary("GetTransaction", PaymentServiceServer.GetTransaction),
		unary("ListTransactions", PaymentServiceServer.ListTransactions),
		unary("VerifyPayment", PaymentServiceServer.VerifyPayment),
		unary("RequestRefund", PaymentServiceServer.RequestRefund),
		unary("GetRefundSummary", PaymentServiceServer.GetRefundSummary),
		unary("CancelRefund", PaymentServiceServer.CancelRefund),
		unary("ListWebhooks", PaymentServiceServer.ListWebhooks),
		unary("ReprocessWebhook", PaymentServiceServer.ReprocessWebhook),
		unary("GatewayQuery", PaymentServiceServer.GatewayQuery),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterPaymentServiceServer(s grpc.ServiceRegistrar, srv PaymentServiceServer) {
	s.RegisterService(&PaymentServiceDesc, srv)
}

// PaymentServiceClient calls PaymentService methods by name.
type PaymentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentServiceClient(cc grpc.ClientConnInterface) *PaymentServiceClient {
	return &PaymentServiceClient{cc: cc}
}

func (c *PaymentServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
