package netbox

import (
	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new netbox feature.
func NewFeature(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, cfg reconcile.Config) *Feature {
	svc := NewService(client, bucket, logger, db, cfg)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "netbox"
}

// IsEnabled reports whether a database is available to reconcile against.
func (f *Feature) IsEnabled() bool {
	return f.service.db != nil
}

// Service exposes the feature's service, e.g. to load the snapshot at startup.
func (f *Feature) Service() *Service {
	return f.service
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
