package presence

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yzGabiru/callback/core"
)

// Leg identifies one of the two daily trips.
type Leg string

const (
	LegOutbound Leg = "outbound" // "vai"
	LegReturn   Leg = "return"   // "volta"
)

// Presence is the daily attendance record of one student on one bus: the
// declared intent for each leg and whether boarding was actually confirmed.
type Presence struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"studentId"`
	BusID             string    `db:"bus_id" json:"busId"`
	CallDate          string    `db:"call_date" json:"callDate"` // YYYY-MM-DD, immutable
	Weekday           Weekday   `db:"weekday" json:"weekday"`    // derived from CallDate
	IntendsOutbound   bool      `db:"intends_outbound" json:"intendsOutbound"`
	IntendsReturn     bool      `db:"intends_return" json:"intendsReturn"`
	OutboundConfirmed bool      `db:"outbound_confirmed" json:"outboundConfirmed"`
	ReturnConfirmed   bool      `db:"return_confirmed" json:"returnConfirmed"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// NewPresence contains information needed to register attendance.
// The confirmation flags are caller-supplied and default to false.
type NewPresence struct {
	StudentID         string `json:"studentId" validate:"required,uuid4"`
	BusID             string `json:"busId" validate:"required,uuid4"`
	CallDate          string `json:"callDate" validate:"required,calldate"`
	IntendsOutbound   bool   `json:"intendsOutbound"`
	IntendsReturn     bool   `json:"intendsReturn"`
	OutboundConfirmed bool   `json:"outboundConfirmed"`
	ReturnConfirmed   bool   `json:"returnConfirmed"`
}

func (np *NewPresence) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID, true /* lower */)
	np.BusID = core.CleanString(np.BusID, true /* lower */)
	np.CallDate = core.CleanString(np.CallDate)
	return validate.Struct(np)
}

// UpdatePresence carries the declared-intent flags for the time-sensitive
// confirmation transition.
type UpdatePresence struct {
	StudentID       string `json:"studentId" validate:"required,uuid4"`
	BusID           string `json:"busId" validate:"required,uuid4"`
	CallDate        string `json:"callDate" validate:"omitempty,calldate"` // defaults to today
	IntendsOutbound bool   `json:"intendsOutbound"`
	IntendsReturn   bool   `json:"intendsReturn"`
}

func (up *UpdatePresence) Validate(validate *validator.Validate) error {
	up.StudentID = core.CleanString(up.StudentID, true /* lower */)
	up.BusID = core.CleanString(up.BusID, true /* lower */)
	up.CallDate = core.CleanString(up.CallDate)
	return validate.Struct(up)
}

// ConfirmationStatus sets exactly one leg's confirmation flag.
type ConfirmationStatus struct {
	Confirmed bool `json:"confirmed"`
	Leg       Leg  `json:"leg" validate:"required,oneof=outbound return"`
}

func (cs *ConfirmationStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(cs)
}
