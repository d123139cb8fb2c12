package service

import (
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
)

type Services struct {
	AuthService     AuthService
	DocumentService DocumentService
	HealthService   HealthService
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:     NewAuthService(cfg.App, logger),
		DocumentService: NewDocumentService(storages.DocumentRepository, logger, NewDocumentValidationService()),
		HealthService:   NewHealthService(storages, logger),
	}
}
