package manage_catalog

import (
	"context"

	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog/models"
)

type CatalogService interface {
	CreateFacility(ctx context.Context, req *models.CreateFacilityRequest) (*models.FacilityResponse, error)
	AddClosure(ctx context.Context, req *models.AddClosureRequest) (*models.ClosureResponse, error)
	DeleteClosure(ctx context.Context, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
