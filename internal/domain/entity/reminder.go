package entity

import "time"

// Reminder represents a user-owned reminder with a deadline and a repeat cadence.
// Within a user's list a reminder is addressed by position, so ordering matters.
type Reminder struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;index"`
	Nombre    string    `gorm:"column:nombre;type:text"`
	Fecha     time.Time `gorm:"column:fecha"`     // final deadline
	Intervalo int       `gorm:"column:intervalo"` // repeat cadence in minutes, always > 0
	Proxima   time.Time `gorm:"column:proxima"`   // next interval notification
}

// TableName specifies the table name for the Reminder entity.
func (Reminder) TableName() string {
	return "recordatorios"
}

// Interval returns the repeat cadence as a duration.
func (r *Reminder) Interval() time.Duration {
	return time.Duration(r.Intervalo) * time.Minute
}

// Due reports whether the deadline has been reached at the given instant.
func (r *Reminder) Due(now time.Time) bool {
	return !now.Before(r.Fecha)
}

// IntervalDue reports whether an interval notification should fire at the
// given instant. It is never true once the deadline has been reached; the
// deadline branch always wins within a tick.
func (r *Reminder) IntervalDue(now time.Time) bool {
	return !now.Before(r.Proxima) && now.Before(r.Fecha)
}
