package presence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound flags a lookup or mutation that matched no record.
	ErrNotFound = errors.New("presence not found")
)

// DuplicateRegistrationError flags a second registration for the same
// (student, call date) pair; the message names the weekday, as the student
// sees it.
type DuplicateRegistrationError struct {
	Weekday Weekday
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("attendance already registered for %s", e.Weekday)
}

// WeekendError flags a registration attempt for a Saturday or Sunday.
type WeekendError struct {
	Weekday Weekday
}

func (e *WeekendError) Error() string {
	return fmt.Sprintf("attendance cannot be registered for a %s", e.Weekday)
}

type (
	Repository interface {
		// CreatePresence inserts a new record. The storage layer must treat
		// (student, call date) as unique and return a
		// *DuplicateRegistrationError when the pair already exists, so two
		// concurrent registrations cannot both land.
		CreatePresence(ctx context.Context, prs Presence) (Presence, error)
		// GetPresence fetches the record for (student, call date); ErrNotFound when absent.
		GetPresence(ctx context.Context, studentID, callDate string) (Presence, error)
		// GetBusPresence fetches the record for (bus, student, call date); ErrNotFound when absent.
		GetBusPresence(ctx context.Context, busID, studentID, callDate string) (Presence, error)
		// QueryPresencesByStudent lists a student's records, optionally scoped to a bus ("" = all).
		QueryPresencesByStudent(ctx context.Context, studentID, busID string) ([]Presence, error)
		QueryPresencesByBus(ctx context.Context, busID string) ([]Presence, error)
		QueryPresencesByDate(ctx context.Context, callDate string) ([]Presence, error)
		// UpdateConfirmation persists the intent and confirmation flags against the
		// record matched by (id, bus); ErrNotFound when no row matches.
		UpdateConfirmation(ctx context.Context, id, busID string, intendsOutbound, intendsReturn, outboundConfirmed, returnConfirmed bool) (Presence, error)
		// SetConfirmation sets both confirmation flags on the record matched by id;
		// ErrNotFound when no row matches.
		SetConfirmation(ctx context.Context, id string, outboundConfirmed, returnConfirmed bool) (Presence, error)
		// DeletePresencesByStudent removes all of a student's records and reports how many.
		DeletePresencesByStudent(ctx context.Context, studentID string) (int64, error)
	}

	ServiceInterface interface {
		Register(ctx context.Context, np NewPresence) (Presence, error)
		GetByStudentAndDate(ctx context.Context, studentID, callDate string) (Presence, error)
		GetTodayByBusAndStudent(ctx context.Context, busID, studentID string) (Presence, error)
		QueryByStudent(ctx context.Context, studentID, busID string) ([]Presence, error)
		QueryByBus(ctx context.Context, busID string) ([]Presence, error)
		QueryByDate(ctx context.Context, callDate string) ([]Presence, error)
		ConfirmArrival(ctx context.Context, id, busID string, intendsOutbound, intendsReturn bool) (Presence, error)
		SetConfirmationByLeg(ctx context.Context, id string, confirmed bool, leg Leg) (Presence, error)
		CheckInOrRegister(ctx context.Context, busID, studentID string) (Presence, error)
		DeleteByStudent(ctx context.Context, studentID string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates the single attendance record for (student, call date).
// The date must be a real YYYY-MM-DD weekday; a second registration for the
// same pair fails with *DuplicateRegistrationError.
func (svc *Service) Register(ctx context.Context, np NewPresence) (Presence, error) {
	date, err := ParseCallDate(np.CallDate)
	if err != nil {
		return Presence{}, err
	}
	weekday := WeekdayName(date)

	if _, err = svc.repo.GetPresence(ctx, np.StudentID, np.CallDate); err == nil {
		return Presence{}, &DuplicateRegistrationError{Weekday: weekday}
	} else if errors.Cause(err) != ErrNotFound {
		return Presence{}, errors.Wrap(err, "checking existing presence")
	}

	if weekday.IsWeekend() {
		return Presence{}, &WeekendError{Weekday: weekday}
	}

	now := NowFunc().UTC()
	prs := Presence{
		ID:                uuid.New().String(),
		StudentID:         np.StudentID,
		BusID:             np.BusID,
		CallDate:          np.CallDate,
		Weekday:           weekday,
		IntendsOutbound:   np.IntendsOutbound,
		IntendsReturn:     np.IntendsReturn,
		OutboundConfirmed: np.OutboundConfirmed,
		ReturnConfirmed:   np.ReturnConfirmed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreatePresence(ctx, prs)
}

func (svc *Service) GetByStudentAndDate(ctx context.Context, studentID, callDate string) (Presence, error) {
	return svc.repo.GetPresence(ctx, studentID, callDate)
}

// GetTodayByBusAndStudent is the scan/check-in read step: today's record for
// (bus, student).
func (svc *Service) GetTodayByBusAndStudent(ctx context.Context, busID, studentID string) (Presence, error) {
	return svc.repo.GetBusPresence(ctx, busID, studentID, Today())
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID, busID string) ([]Presence, error) {
	return svc.repo.QueryPresencesByStudent(ctx, studentID, busID)
}

func (svc *Service) QueryByBus(ctx context.Context, busID string) ([]Presence, error) {
	return svc.repo.QueryPresencesByBus(ctx, busID)
}

// QueryByDate lists the records of one calendar day; empty callDate means today.
func (svc *Service) QueryByDate(ctx context.Context, callDate string) ([]Presence, error) {
	if callDate == "" {
		callDate = Today()
	} else if _, err := ParseCallDate(callDate); err != nil {
		return nil, err
	}
	return svc.repo.QueryPresencesByDate(ctx, callDate)
}

// ConfirmArrival applies the time-of-day confirmation transition: up to and
// including 18h a check-in confirms the outbound leg (when intended); from
// 19h on it confirms the return leg.
func (svc *Service) ConfirmArrival(ctx context.Context, id, busID string, intendsOutbound, intendsReturn bool) (Presence, error) {
	hour := CurrentHour()
	outboundConfirmed := hour <= 18 && intendsOutbound
	returnConfirmed := hour >= 19
	return svc.repo.UpdateConfirmation(ctx, id, busID, intendsOutbound, intendsReturn, outboundConfirmed, returnConfirmed)
}

// SetConfirmationByLeg sets exactly the given leg's confirmation flag,
// leaving the other false.
func (svc *Service) SetConfirmationByLeg(ctx context.Context, id string, confirmed bool, leg Leg) (Presence, error) {
	var outboundConfirmed, returnConfirmed bool
	switch leg {
	case LegOutbound:
		outboundConfirmed = confirmed
	case LegReturn:
		returnConfirmed = confirmed
	default:
		return Presence{}, errors.Errorf("unknown leg %q", leg)
	}
	return svc.repo.SetConfirmation(ctx, id, outboundConfirmed, returnConfirmed)
}

// CheckInOrRegister is the boarding-scan entry point: confirm today's record
// for (bus, student) using its stored intents, or register a fresh one with
// both intents when the student has none yet.
func (svc *Service) CheckInOrRegister(ctx context.Context, busID, studentID string) (Presence, error) {
	prs, err := svc.GetTodayByBusAndStudent(ctx, busID, studentID)
	if err == nil {
		return svc.ConfirmArrival(ctx, prs.ID, busID, prs.IntendsOutbound, prs.IntendsReturn)
	}
	if errors.Cause(err) != ErrNotFound {
		return Presence{}, errors.Wrap(err, "checking today's presence")
	}
	return svc.Register(ctx, NewPresence{
		StudentID:       studentID,
		BusID:           busID,
		CallDate:        Today(),
		IntendsOutbound: true,
		IntendsReturn:   true,
	})
}

// DeleteByStudent removes all of a student's attendance records; deleting
// zero records is surfaced as ErrNotFound.
func (svc *Service) DeleteByStudent(ctx context.Context, studentID string) error {
	n, err := svc.repo.DeletePresencesByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
