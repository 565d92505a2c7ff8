package domain

import "time"

// Facility площадка (корт, зал, тир)
type Facility struct {
	ID              int64
	Name            string
	CapacityPerSlot int // максимум одновременных active броней на пару (слот, дата)
	MaxDuration     int // минуты
	IsActive        bool
	CreatedAt       time.Time
}

// Validate capacity_per_slot >= 1
func (f *Facility) Validate() error {
	if f.Name == "" {
		return ErrInvalidFacility
	}
	if f.CapacityPerSlot < MinCapacityPerSlot {
		return ErrInvalidFacility
	}
	return nil
}
