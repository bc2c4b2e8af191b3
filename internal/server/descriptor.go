package server

import (
	"errors"
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ProtoFile is the path of proto/legal/v1/analysis.proto relative to the proto root.
const ProtoFile = "legal/v1/analysis.proto"

// analysisFileProto mirrors proto/legal/v1/analysis.proto. The method list is
// taken from AnalysisServiceDesc so the two cannot drift apart.
func analysisFileProto() *descriptorpb.FileDescriptorProto {
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(AnalysisServiceDesc.Methods))
	for _, m := range AnalysisServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(".google.protobuf.StringValue"),
			OutputType: proto.String(".google.protobuf.Struct"),
		})
	}
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String("legal.v1"),
		Dependency: []string{"google/protobuf/struct.proto", "google/protobuf/wrappers.proto"},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("AnalysisService"),
			Method: methods,
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/joseph-ayodele/legal-analyzer/internal/server"),
		},
		Syntax: proto.String("proto3"),
	}
}

// RegisterDescriptor adds the service's file descriptor to the global
// registry so server reflection can resolve it. Safe to call repeatedly.
var RegisterDescriptor = sync.OnceValue(func() error {
	_, err := protoregistry.GlobalFiles.FindFileByPath(ProtoFile)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, protoregistry.NotFound):
		return err
	}
	fd, err := protodesc.NewFile(analysisFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		return fmt.Errorf("build %s: %w", ProtoFile, err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		return fmt.Errorf("register %s: %w", ProtoFile, err)
	}
	return nil
})
