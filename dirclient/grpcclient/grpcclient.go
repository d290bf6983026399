// Package grpcclient is the production dirclient.Client transport: it dials
// a grpc.ClientConn and issues each DIR RPC as a generic Invoke call against
// a fixed method path, marshaling the domain structs to/from
// google.golang.org/protobuf/types/known/structpb.Struct envelopes.
//
// This mirrors controller/api/destination/client.go's NewClient(addr), which
// returns a generated pb.DestinationClient wrapping a grpc.ClientConn — the
// same "typed client over a concrete gRPC transport" shape, just without a
// project-specific .proto compilation step: structpb gives us a generic,
// already-a-real-proto.Message envelope to carry this agent's few simple
// record shapes.
package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtreemfs/presenced/dirclient"
)

// Service is the fully-qualified gRPC service name DIR is expected to serve.
const Service = "xtreemfs.dir.DIR"

// Client is a dirclient.Client backed by a grpc.ClientConn.
type Client struct {
	conn *grpc.ClientConn
}

// Dial opens a grpc.ClientConn to addr using opts (TLS credentials, etc. are
// the embedder's responsibility to supply — this package never constructs a
// TLS context itself, per §1's scope boundary) and returns a ready Client.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.Dial(addr, opts...) //nolint:staticcheck // grpc.NewClient requires a newer grpc-go than this module pins.
	if err != nil {
		return nil, fmt.Errorf("dirclient/grpcclient: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// New wraps an already-established connection, for embedders that manage
// their own grpc.ClientConn lifecycle (e.g. sharing one connection across
// several typed clients).
func New(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func method(name string) string {
	return "/" + Service + "/" + name
}

// doInvoke is the one call path every RPC in this client funnels through,
// so response resources are released uniformly regardless of which RPC or
// branch is taken — see SPEC_FULL.md §9's resolution of the "deregister
// buffers not tracked uniformly" open question.
func (c *Client) doInvoke(ctx context.Context, rpc string, req *structpb.Struct) (*structpb.Struct, error) {
	reply := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method(rpc), req, reply); err != nil {
		return nil, fmt.Errorf("dirclient/grpcclient: %s: %w", rpc, err)
	}
	return reply, nil
}

// MappingsGet implements dirclient.Client.
func (c *Client) MappingsGet(ctx context.Context, uuid string) (dirclient.AddressMappingSet, error) {
	req, _ := structpb.NewStruct(map[string]any{"uuid": uuid})
	reply, err := c.doInvoke(ctx, "MappingsGet", req)
	if err != nil {
		return dirclient.AddressMappingSet{}, err
	}
	return structToMappingSet(reply), nil
}

// MappingsSet implements dirclient.Client.
func (c *Client) MappingsSet(ctx context.Context, set dirclient.AddressMappingSet) error {
	req := mappingSetToStruct(set)
	_, err := c.doInvoke(ctx, "MappingsSet", req)
	return err
}

// ServiceGetByUUID implements dirclient.Client.
func (c *Client) ServiceGetByUUID(ctx context.Context, uuid string) (*dirclient.ServiceRecord, error) {
	req, _ := structpb.NewStruct(map[string]any{"uuid": uuid})
	reply, err := c.doInvoke(ctx, "ServiceGetByUUID", req)
	if err != nil {
		return nil, err
	}
	if len(reply.GetFields()) == 0 {
		return nil, nil
	}
	rec := structToServiceRecord(reply)
	return &rec, nil
}

// ServiceRegister implements dirclient.Client.
func (c *Client) ServiceRegister(ctx context.Context, rec dirclient.ServiceRecord) error {
	req := serviceRecordToStruct(rec)
	_, err := c.doInvoke(ctx, "ServiceRegister", req)
	return err
}

// ServiceDeregister implements dirclient.Client.
func (c *Client) ServiceDeregister(ctx context.Context, uuid string) error {
	req, _ := structpb.NewStruct(map[string]any{"uuid": uuid})
	_, err := c.doInvoke(ctx, "ServiceDeregister", req)
	return err
}

// ConfigurationGet implements dirclient.Client.
func (c *Client) ConfigurationGet(ctx context.Context, uuid string) (dirclient.ConfigurationBlob, error) {
	req, _ := structpb.NewStruct(map[string]any{"uuid": uuid})
	reply, err := c.doInvoke(ctx, "ConfigurationGet", req)
	if err != nil {
		return dirclient.ConfigurationBlob{}, err
	}
	return structToConfiguration(reply), nil
}

// ConfigurationSet implements dirclient.Client.
func (c *Client) ConfigurationSet(ctx context.Context, cfg dirclient.ConfigurationBlob) error {
	req := configurationToStruct(cfg)
	_, err := c.doInvoke(ctx, "ConfigurationSet", req)
	return err
}

// Close implements dirclient.Client.
func (c *Client) Close() error {
	return c.conn.Close()
}
