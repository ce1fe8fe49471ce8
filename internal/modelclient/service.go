package modelclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodPredict = "/mawile.ValueModel/Predict"
	methodFit     = "/mawile.ValueModel/Fit"
	methodSave    = "/mawile.ValueModel/Save"
	methodLoad    = "/mawile.ValueModel/Load"
)

// ValueService is the client side of the mawile.ValueModel gRPC service.
// Requests and responses are generic protobuf structs.
type ValueService interface {
	Predict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Fit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Load(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type valueServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewValueServiceClient binds a ValueService to a connection.
func NewValueServiceClient(cc grpc.ClientConnInterface) ValueService {
	return &valueServiceClient{cc: cc}
}

func (c *valueServiceClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *valueServiceClient) Predict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodPredict, in, opts...)
}

func (c *valueServiceClient) Fit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodFit, in, opts...)
}

func (c *valueServiceClient) Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodSave, in, opts...)
}

func (c *valueServiceClient) Load(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodLoad, in, opts...)
}
