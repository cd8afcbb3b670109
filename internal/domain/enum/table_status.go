package enum

// TableStatus represents the occupancy status of a table
type TableStatus string

const (
	TableStatusAvailable   TableStatus = "available"
	TableStatusReserved    TableStatus = "reserved"
	TableStatusOccupied    TableStatus = "occupied"
	TableStatusMaintenance TableStatus = "maintenance"
)

func (s TableStatus) IsValid() bool {
	switch s {
	case TableStatusAvailable, TableStatusReserved, TableStatusOccupied, TableStatusMaintenance:
		return true
	}
	return false
}

// ReservationStatus represents the state of a table booking
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCompleted ReservationStatus = "completed"
	ReservationNoShow    ReservationStatus = "no-show"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationConfirmed, ReservationSeated, ReservationCompleted, ReservationNoShow, ReservationCancelled:
		return true
	}
	return false
}

// BlocksTable reports whether a reservation in this status still holds its time window
func (s ReservationStatus) BlocksTable() bool {
	return s != ReservationCancelled && s != ReservationNoShow
}

// CanMoveTo encodes confirmed → seated/cancelled/no-show and seated → completed
func (s ReservationStatus) CanMoveTo(next ReservationStatus) bool {
	switch s {
	case ReservationConfirmed:
		return next == ReservationSeated || next == ReservationCancelled || next == ReservationNoShow
	case ReservationSeated:
		return next == ReservationCompleted
	}
	return false
}

// SessionSource records how a table session was opened
type SessionSource string

const (
	SessionSourceScan        SessionSource = "scan"
	SessionSourceStaff       SessionSource = "staff"
	SessionSourceReservation SessionSource = "reservation"
)
