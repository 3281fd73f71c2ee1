package clients

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"marketplace/candidates/internal/candidates"
	candidatesgrpc "marketplace/candidates/internal/grpc"
	"marketplace/candidates/internal/stats"
	"marketplace/candidates/internal/transform"
)

type Clients struct {
	Conn       *grpc.ClientConn
	Candidates *CandidateQueryClient
}

func New(ctx context.Context, addr, serviceToken string, timeout time.Duration) (*Clients, error) {
	if serviceToken == "" {
		return nil, errors.New("service auth token required")
	}
	conn, err := dial(ctx, addr, serviceToken, timeout)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Conn:       conn,
		Candidates: NewCandidateQueryClient(conn),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func dial(ctx context.Context, addr, serviceToken string, timeout time.Duration, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(ServiceAuthUnaryClientInterceptor(serviceToken)),
	}, opts...)
	return grpc.DialContext(ctx, addr, opts...)
}

func ServiceAuthUnaryClientInterceptor(serviceToken string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, candidatesgrpc.ServiceTokenHeader, serviceToken)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// CandidateQueryClient is the typed side of the Struct-based query service.
type CandidateQueryClient struct {
	cc grpc.ClientConnInterface
}

func NewCandidateQueryClient(cc grpc.ClientConnInterface) *CandidateQueryClient {
	return &CandidateQueryClient{cc: cc}
}

func (c *CandidateQueryClient) ListCandidates(ctx context.Context, filters candidates.Filters) (candidates.Result[transform.Candidate], error) {
	var out candidates.Result[transform.Candidate]
	err := c.call(ctx, candidatesgrpc.MethodListCandidates, filters, &out)
	return out, err
}

func (c *CandidateQueryClient) GetStatsSummary(ctx context.Context) (stats.Summary, error) {
	var out stats.Summary
	err := c.call(ctx, candidatesgrpc.MethodGetStatsSummary, struct{}{}, &out)
	return out, err
}

func (c *CandidateQueryClient) GetProfile(ctx context.Context, id string) (transform.StudentProfile, error) {
	var out transform.StudentProfile
	err := c.call(ctx, candidatesgrpc.MethodGetProfile, candidatesgrpc.ProfileRequest{ID: id}, &out)
	return out, err
}

func (c *CandidateQueryClient) call(ctx context.Context, method string, in, out interface{}) error {
	req, err := candidatesgrpc.EncodeStruct(in)
	if err != nil {
		return err
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, candidatesgrpc.FullMethod(method), req, resp); err != nil {
		return err
	}
	return candidatesgrpc.DecodeStruct(resp, out)
}
