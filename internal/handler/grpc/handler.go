package grpc

import (
	"context"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// DocumentsServiceName is the health service name of the document store.
// The empty name reports the overall server status.
const DocumentsServiceName = "habits.Documents"

const (
	defaultCheckInterval = 5 * time.Second
	checkTimeout         = 2 * time.Second
)

// Handler is the root gRPC transport handler.
//
// It serves the standard gRPC health protocol. Clients use it as a cheap
// connectivity probe; the status follows the reachability of the document
// storage.
type Handler struct {
	services *service.Services
	health   *health.Server

	checkInterval time.Duration

	logger *logger.Logger
}

// NewHandler constructs a [Handler]. Every service starts as NOT_SERVING
// until the first storage check.
func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")

	h := &Handler{
		services:      services,
		health:        health.NewServer(),
		checkInterval: defaultCheckInterval,
		logger:        logger,
	}
	h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return h
}

// Register attaches the health service to server.
func (h *Handler) Register(server *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(server, h.health)
}

// Watch refreshes the health status until ctx is done, then reports
// NOT_SERVING for good so that watching clients switch offline.
func (h *Handler) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	h.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.refresh(ctx)
		}
	}
}

func (h *Handler) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := h.services.HealthService.Check(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("document storage is not serving")
		h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
}

func (h *Handler) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(DocumentsServiceName, status)
}
