package get_catalog

import (
	"context"

	"github.com/m04kA/SMC-FacilityBookingService/internal/service/catalog/models"
)

type CatalogService interface {
	ListFacilities(ctx context.Context, activeOnly bool) ([]models.FacilityResponse, error)
	GetFacility(ctx context.Context, id int64) (*models.FacilityResponse, error)
	ListSlots(ctx context.Context) ([]models.SlotResponse, error)
	ClosuresOn(ctx context.Context, date string) ([]models.ClosureResponse, error)
}

type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
