package domain

// SlotAvailability остаток мест на слоте в конкретную дату
type SlotAvailability struct {
	Slot     TimeSlot
	Capacity int
	Booked   int
}

// RemainingCapacity свободные места, не меньше нуля. Единая формула для допуска и доступности
func RemainingCapacity(capacity, active int) int {
	if active >= capacity {
		return 0
	}
	return capacity - active
}

func (s *SlotAvailability) Remaining() int {
	return RemainingCapacity(s.Capacity, s.Booked)
}

func (s *SlotAvailability) IsFull() bool {
	return s.Remaining() == 0
}

// OccupancyRate заполненность в процентах (0-100)
func (s *SlotAvailability) OccupancyRate() float64 {
	if s.Capacity == 0 {
		return 0
	}
	booked := s.Booked
	if booked > s.Capacity {
		booked = s.Capacity
	}
	return float64(booked) / float64(s.Capacity) * 100
}

// CalendarEntry занятость кортежа (площадка, слот, дата)
type CalendarEntry struct {
	Key      SlotKey
	Booked   int
	Capacity int
}
