package grpc

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/candidates"
	"marketplace/candidates/internal/stats"
	"marketplace/candidates/internal/transform"
)

const ServiceName = "candidates.v1.CandidateQueryService"

const (
	MethodListCandidates  = "ListCandidates"
	MethodGetStatsSummary = "GetStatsSummary"
	MethodGetProfile      = "GetProfile"
)

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CandidateQueryService serves anonymized reads only. Requests and replies
// are JSON objects carried as google.protobuf.Struct.
type CandidateQueryService interface {
	ListCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStatsSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var CandidateQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CandidateQueryService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodListCandidates, Handler: unaryHandler(MethodListCandidates, CandidateQueryService.ListCandidates)},
		{MethodName: MethodGetStatsSummary, Handler: unaryHandler(MethodGetStatsSummary, CandidateQueryService.GetStatsSummary)},
		{MethodName: MethodGetProfile, Handler: unaryHandler(MethodGetProfile, CandidateQueryService.GetProfile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "candidates/v1/query.proto",
}

func RegisterCandidateQueryServer(s grpc.ServiceRegistrar, srv CandidateQueryService) {
	s.RegisterService(&CandidateQueryServiceDesc, srv)
}

type queryCall func(CandidateQueryService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call queryCall) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CandidateQueryService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CandidateQueryService), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type CandidateLister interface {
	List(ctx context.Context, f candidates.Filters) (candidates.Result[transform.Candidate], error)
}

type StatsReader interface {
	Summary(ctx context.Context) (stats.Summary, error)
}

type ProfileReader interface {
	Get(ctx context.Context, id string) (transform.StudentProfile, error)
}

type CandidateQueryServer struct {
	candidates CandidateLister
	stats      StatsReader
	profiles   ProfileReader
	validate   *validator.Validate
}

func NewCandidateQueryServer(candidates CandidateLister, stats StatsReader, profiles ProfileReader) *CandidateQueryServer {
	return &CandidateQueryServer{
		candidates: candidates,
		stats:      stats,
		profiles:   profiles,
		validate:   validator.New(),
	}
}

type ProfileRequest struct {
	ID string `json:"id"`
}

func (s *CandidateQueryServer) ListCandidates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filters candidates.Filters
	if err := DecodeStruct(req, &filters); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid filters")
	}
	if filters.IncludeAllData {
		return nil, status.Error(codes.InvalidArgument, "complete mode not available")
	}
	filters = filters.Normalize()
	if err := s.validate.Struct(filters); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid filters")
	}
	result, err := s.candidates.List(ctx, filters)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(result)
}

func (s *CandidateQueryServer) GetStatsSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.stats.Summary(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(summary)
}

func (s *CandidateQueryServer) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ProfileRequest
	if err := DecodeStruct(req, &in); err != nil || in.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if _, err := uuid.Parse(in.ID); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid id")
	}
	profile, err := s.profiles.Get(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(profile)
}

func reply(v interface{}) (*structpb.Struct, error) {
	out, err := EncodeStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return out, nil
}

func toStatus(err error) error {
	appErr, ok := apperr.As(err)
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	switch appErr.Kind {
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, appErr.Message)
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, appErr.Message)
	case apperr.KindRateLimited:
		return status.Error(codes.ResourceExhausted, appErr.Message)
	default:
		return status.Error(codes.Internal, appErr.Message)
	}
}
