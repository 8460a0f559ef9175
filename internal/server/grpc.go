package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/export"
)

const (
	IngestServiceName = "docingest.v1.IngestService"

	ingestFileMethod  = "/" + IngestServiceName + "/IngestFile"
	getDocumentMethod = "/" + IngestServiceName + "/GetDocument"
)

// IngestServer carries requests and responses as google.protobuf.Struct so the
// service needs no generated code. IngestFile takes {"path"} and GetDocument
// takes {"id"}; both answer {"deduplicated", "record"}.
type IngestServer interface {
	IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// IngestServiceDesc is registered with grpc.Server.RegisterService.
var IngestServiceDesc = grpc.ServiceDesc{
	ServiceName: IngestServiceName,
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IngestFile", Handler: unaryHandler(ingestFileMethod, IngestServer.IngestFile)},
		{MethodName: "GetDocument", Handler: unaryHandler(getDocumentMethod, IngestServer.GetDocument)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docingest/v1/ingest.proto",
}

func unaryHandler(fullMethod string, call func(IngestServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IngestServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IngestServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IngestionService implements IngestServer on top of DocumentService.
type IngestionService struct {
	svc    *DocumentService
	logger *slog.Logger
}

var _ IngestServer = (*IngestionService)(nil)

func NewIngestionService(svc *DocumentService, logger *slog.Logger) *IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionService{svc: svc, logger: logger}
}

func (s *IngestionService) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := req.GetFields()["path"].GetStringValue()
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	rec, dedup, err := s.svc.Ingest(ctx, path)
	if err != nil {
		return nil, common.StatusFromError(err)
	}
	return recordResponse(rec, dedup)
}

func (s *IngestionService) GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, common.InvalidArgumentError("id is required")
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, common.StatusFromError(err)
	}
	return recordResponse(rec, false)
}

func recordResponse(rec export.Record, dedup bool) (*structpb.Struct, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, common.InternalErrorf("encode record: %v", err)
	}
	record := new(structpb.Struct)
	if err := protojson.Unmarshal(b, record); err != nil {
		return nil, common.InternalErrorf("encode record: %v", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"deduplicated": structpb.NewBoolValue(dedup),
		"record":       structpb.NewStructValue(record),
	}}, nil
}

// NewGRPCServer registers the ingest, health and reflection services.
func NewGRPCServer(svc *DocumentService, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	s.RegisterService(&IngestServiceDesc, NewIngestionService(svc, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(IngestServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s, healthServer
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc call failed", "method", info.FullMethod, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		} else {
			logger.Debug("grpc call", "method", info.FullMethod, "duration_ms", time.Since(start).Milliseconds())
		}
		return resp, err
	}
}

// IngestClient calls IngestService over a client connection.
type IngestClient struct {
	cc grpc.ClientConnInterface
}

func NewIngestClient(cc grpc.ClientConnInterface) *IngestClient {
	return &IngestClient{cc: cc}
}

func (c *IngestClient) IngestFile(ctx context.Context, path string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, ingestFileMethod, map[string]any{"path": path}, opts...)
}

func (c *IngestClient) GetDocument(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, getDocumentMethod, map[string]any{"id": id}, opts...)
}

func (c *IngestClient) call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
