package presence

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the canonical calendar-date format for call dates.
const DateLayout = "2006-01-02"

// DefaultTimezone anchors "today" and the confirmation window to the zone
// the bus service operates in.
const DefaultTimezone = "America/Sao_Paulo"

var (
	ErrInvalidDateFormat = errors.New("invalid date; use the YYYY-MM-DD format")
	ErrInvalidDate       = errors.New("invalid date")

	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// NowFunc is the attendance clock; mockable.
	NowFunc = time.Now
	// Location is the timezone NowFunc readings are interpreted in.
	Location = loadLocation()
)

func loadLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		log.Printf("presence: loading timezone %s: %v; falling back to Local", DefaultTimezone, err)
		return time.Local
	}
	return loc
}

// Weekday is the lowercase day-of-week name stored alongside each record.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// time.Weekday ordering: 0 = Sunday.
var weekdayNames = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (w Weekday) IsWeekend() bool {
	return w == Saturday || w == Sunday
}

func (w Weekday) String() string {
	return string(w)
}

// WeekdayName maps a date to its lowercase day-of-week name.
func WeekdayName(t time.Time) Weekday {
	return weekdayNames[int(t.Weekday())]
}

// ParseCallDate validates a YYYY-MM-DD string and returns the date it
// denotes. ErrInvalidDateFormat flags a malformed string; ErrInvalidDate
// flags a well-formed string that is not a real calendar day (2024-02-30,
// month 13, ...).
func ParseCallDate(s string) (time.Time, error) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, ErrInvalidDateFormat
	}

	parts := strings.SplitN(s, "-", 3)
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	// time.Date normalizes out-of-range components (Feb 30 -> Mar 2);
	// a round-trip mismatch therefore means the day does not exist.
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// Today returns the current calendar date in the attendance timezone,
// formatted as YYYY-MM-DD.
func Today() string {
	return NowFunc().In(Location).Format(DateLayout)
}

// CurrentHour returns the current hour of day (0-23) in the attendance
// timezone; it decides which leg a check-in confirms.
func CurrentHour() int {
	return NowFunc().In(Location).Hour()
}
