package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthService struct {
	storage Pinger
	logger  *logger.Logger
}

func NewHealthService(storage Pinger, logger *logger.Logger) HealthService {
	return &healthService{storage: storage, logger: logger}
}

func (h *healthService) Check(ctx context.Context) error {
	if h.storage == nil {
		return nil
	}
	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Str("func", "*healthService.Check").Msg("storage is not reachable")
		return fmt.Errorf("%w: %w", ErrStorageUnreachable, err)
	}
	return nil
}
