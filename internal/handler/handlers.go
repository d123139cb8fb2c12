package handler

import (
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/handler/grpc"
	"github.com/MKhiriev/go-habit-tracker/internal/handler/http"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
)

// Handlers groups the transports of the document server. A nil field means
// its address is not configured: HTTP carries the document API and the
// change feed, gRPC carries health checks.
type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	var h Handlers
	if cfg.HTTPAddress != "" {
		h.HTTP = http.NewHandler(services, cfg, logger)
	}
	if cfg.GRPCAddress != "" {
		h.GRPC = grpc.NewHandler(services, logger)
	}
	if h.HTTP == nil && h.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	logger.Info().
		Bool("http", h.HTTP != nil).
		Bool("grpc", h.GRPC != nil).
		Msg("handlers created")
	return &h, nil
}
