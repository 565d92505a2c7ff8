package get_availability

import (
	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date         string            `json:"date"`
	FacilityID   int64             `json:"facility_id"`
	FacilityName string            `json:"facility_name"`
	Closed       bool              `json:"closed"`
	Closures     []ClosureResponse `json:"closures"`
	Slots        []SlotResponse    `json:"slots"`
}

// SlotResponse остаток по одному слоту
type SlotResponse struct {
	SlotID    int64   `json:"slot_id"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Session   string  `json:"session"`
	Capacity  int     `json:"capacity"`
	Booked    int     `json:"booked"`
	Remaining int     `json:"remaining"`
	Occupancy float64 `json:"occupancy_rate"`
	Bookable  bool    `json:"bookable"`
}

type ClosureResponse struct {
	ID          int64  `json:"id"`
	Global      bool   `json:"global"`
	Description string `json:"description"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		Date:         resp.Date.Format(domain.DateFormat),
		FacilityID:   resp.FacilityID,
		FacilityName: resp.FacilityName,
		Closed:       resp.Closed,
		Closures:     make([]ClosureResponse, 0, len(resp.Closures)),
		Slots:        make([]SlotResponse, 0, len(resp.Slots)),
	}
	for _, c := range resp.Closures {
		out.Closures = append(out.Closures, ClosureResponse{ID: c.ID, Global: c.Global, Description: c.Description})
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			SlotID:    s.SlotID,
			Start:     s.StartTime.String(),
			End:       s.EndTime.String(),
			Session:   s.Session,
			Capacity:  s.Capacity,
			Booked:    s.Booked,
			Remaining: s.Remaining,
			Occupancy: s.Occupancy,
			Bookable:  s.Bookable,
		})
	}
	return out
}
