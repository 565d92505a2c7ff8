package domain

import "time"

// Closure закрытие на дату. FacilityID == nil - закрыто всё
type Closure struct {
	ID          int64
	Date        time.Time
	FacilityID  *int64
	Description string
	CreatedAt   time.Time
}

func (c *Closure) IsGlobal() bool {
	return c.FacilityID == nil
}

// Applies true, если закрытие касается площадки
func (c *Closure) Applies(facilityID int64) bool {
	return c.FacilityID == nil || *c.FacilityID == facilityID
}
