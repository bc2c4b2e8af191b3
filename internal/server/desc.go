package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "legal.v1.AnalysisService"

// AnalysisServer is the server API for legal.v1.AnalysisService. Every method
// takes a document id or path as a StringValue and answers with a Struct.
type AnalysisServer interface {
	IngestPath(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetStatus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetAnalysis(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Reanalyze(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	DeleteDocument(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type unaryMethod func(AnalysisServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)

func unaryHandler(name string, m unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(AnalysisServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return m(srv.(AnalysisServer), ctx, req.(*wrapperspb.StringValue))
		})
	}
}

// AnalysisServiceDesc describes legal.v1.AnalysisService for grpc.Server.RegisterService.
var AnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IngestPath", Handler: unaryHandler("IngestPath", AnalysisServer.IngestPath)},
		{MethodName: "GetStatus", Handler: unaryHandler("GetStatus", AnalysisServer.GetStatus)},
		{MethodName: "GetAnalysis", Handler: unaryHandler("GetAnalysis", AnalysisServer.GetAnalysis)},
		{MethodName: "Reanalyze", Handler: unaryHandler("Reanalyze", AnalysisServer.Reanalyze)},
		{MethodName: "DeleteDocument", Handler: unaryHandler("DeleteDocument", AnalysisServer.DeleteDocument)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}

func RegisterAnalysisServer(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&AnalysisServiceDesc, srv)
}

// AnalysisClient calls legal.v1.AnalysisService.
type AnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalysisClient(cc grpc.ClientConnInterface) *AnalysisClient {
	return &AnalysisClient{cc: cc}
}

func (c *AnalysisClient) invoke(ctx context.Context, method, arg string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, wrapperspb.String(arg), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnalysisClient) IngestPath(ctx context.Context, path string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "IngestPath", path, opts...)
}

func (c *AnalysisClient) GetStatus(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetStatus", id, opts...)
}

func (c *AnalysisClient) GetAnalysis(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetAnalysis", id, opts...)
}

func (c *AnalysisClient) Reanalyze(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Reanalyze", id, opts...)
}

func (c *AnalysisClient) DeleteDocument(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeleteDocument", id, opts...)
}
