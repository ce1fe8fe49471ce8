package modelclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/mawile/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformedResponse is returned when the server answers with a payload
// that does not match the request.
var ErrMalformedResponse = errors.New("malformed model response")

// DefaultCheckpointTimeout bounds Save and Load, which carry no context.
const DefaultCheckpointTimeout = 30 * time.Second

var (
	_ model.ValueModel   = (*Client)(nil)
	_ model.Checkpointer = (*Client)(nil)
)

// #region client-struct
// Client is a model.ValueModel backed by a remote model server.
type Client struct {
	conn    *grpc.ClientConn
	svc     ValueService
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// New connects to the model server at addr.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		svc:     NewValueServiceClient(conn),
		timeout: DefaultCheckpointTimeout,
	}, nil
}

// NewWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewWithService(svc ValueService) *Client {
	return &Client{svc: svc, timeout: DefaultCheckpointTimeout}
}

// #endregion constructor

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region predict
// Predict sends {"batch": [[...]]} and expects {"predictions": [[...]]}
// with one row per input row.
func (c *Client) Predict(ctx context.Context, batch [][]float64) ([][]float64, error) {
	if len(batch) == 0 {
		return [][]float64{}, nil
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"batch": matrixValue(batch),
	}}
	resp, err := withRetry(ctx, "predict", func() (*structpb.Struct, error) {
		return c.svc.Predict(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("predict rpc: %w", err)
	}

	preds, err := valueMatrix(resp.GetFields()["predictions"])
	if err != nil {
		return nil, fmt.Errorf("predict rpc: %w", err)
	}
	if len(preds) != len(batch) {
		return nil, fmt.Errorf("predict rpc: %w: %d rows for a batch of %d", ErrMalformedResponse, len(preds), len(batch))
	}
	return preds, nil
}

// #endregion predict

// #region fit
// Fit sends {"inputs", "targets", "epochs"}; the response body is ignored.
// Fit is never retried.
func (c *Client) Fit(ctx context.Context, inputs, targets [][]float64, epochs int) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", model.ErrBatchShape, len(inputs), len(targets))
	}
	if len(inputs) == 0 || epochs <= 0 {
		return nil
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"inputs":  matrixValue(inputs),
		"targets": matrixValue(targets),
		"epochs":  structpb.NewNumberValue(float64(epochs)),
	}}
	if _, err := c.svc.Fit(ctx, req); err != nil {
		return fmt.Errorf("fit rpc: %w", err)
	}
	return nil
}

// #endregion fit

// #region checkpoint
// Save asks the server to write its weights to path.
func (c *Client) Save(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req := pathRequest(path)
	_, err := withRetry(ctx, "save", func() (*structpb.Struct, error) {
		return c.svc.Save(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("save rpc: %w", err)
	}
	return nil
}

// Load asks the server to restore weights from path. NotFound maps to
// model.ErrCheckpointUnavailable.
func (c *Client) Load(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req := pathRequest(path)
	_, err := withRetry(ctx, "load", func() (*structpb.Struct, error) {
		return c.svc.Load(ctx, req)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", model.ErrCheckpointUnavailable, status.Convert(err).Message())
		}
		return fmt.Errorf("load rpc: %w", err)
	}
	return nil
}

func pathRequest(path string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"path": structpb.NewStringValue(path),
	}}
}

// #endregion checkpoint

// #region convert
func matrixValue(m [][]float64) *structpb.Value {
	rows := make([]*structpb.Value, len(m))
	for i, row := range m {
		vals := make([]*structpb.Value, len(row))
		for j, v := range row {
			vals[j] = structpb.NewNumberValue(v)
		}
		rows[i] = structpb.NewListValue(&structpb.ListValue{Values: vals})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: rows})
}

func valueMatrix(v *structpb.Value) ([][]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected a list of rows", ErrMalformedResponse)
	}
	out := make([][]float64, len(list.GetValues()))
	for i, rv := range list.GetValues() {
		row := rv.GetListValue()
		if row == nil {
			return nil, fmt.Errorf("%w: row %d is not a list", ErrMalformedResponse, i)
		}
		out[i] = make([]float64, len(row.GetValues()))
		for j, cell := range row.GetValues() {
			n, ok := cell.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return nil, fmt.Errorf("%w: cell %d,%d is not a number", ErrMalformedResponse, i, j)
			}
			out[i][j] = n.NumberValue
		}
	}
	return out, nil
}

// #endregion convert
