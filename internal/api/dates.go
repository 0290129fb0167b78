package api

import (
	"net/url"
	"strings"
	"time"
)

// DateLayout is the W3C date-time encoding expected in query strings.
const DateLayout = "2006-01-02T15:04:05-07:00"

var (
	localDateLayouts = []string{
		"2006-01-02",
		"2006-01-02T15:04",
	}
	zonedDateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
)

// ParseDate parses one of the accepted date forms: a plain date (start of
// that day), a date with hours and minutes, or a W3C date-time with offset.
// Forms without an offset are interpreted in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	for _, layout := range zonedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateFormatError{Value: value}
}

// FormatDate encodes t for a query string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateType selects which order date a range filters on.
type DateType string

const (
	DateCreation DateType = "creation"
	DateChange   DateType = "change"
	DatePayment  DateType = "payment"
	DateDelivery DateType = "delivery"
)

var dateTypePrefixes = map[DateType]string{
	DateCreation: "created",
	DateChange:   "updated",
	DatePayment:  "paid",
	DateDelivery: "outgoingItemsBooked",
}

var dateTypeAliases = map[string]DateType{
	"creation": DateCreation,
	"create":   DateCreation,
	"created":  DateCreation,
	"change":   DateChange,
	"update":   DateChange,
	"updated":  DateChange,
	"payment":  DatePayment,
	"paid":     DatePayment,
	"delivery": DateDelivery,
}

// ParseDateType maps a user supplied name onto a DateType.
func ParseDateType(value string) (DateType, error) {
	if dt, ok := dateTypeAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return dt, nil
	}
	return "", &InvalidParameterError{
		Name:   "date type",
		Reason: "must be one of creation, change, payment, delivery",
	}
}

// DateRange is an inclusive time window on one order date.
type DateRange struct {
	Start time.Time
	End   time.Time
	Type  DateType
}

// NewDateRange parses both bounds and checks start <= end.
func NewDateRange(start, end string, typ DateType, loc *time.Location) (DateRange, error) {
	if _, ok := dateTypePrefixes[typ]; !ok {
		return DateRange{}, &InvalidParameterError{
			Name:   "date type",
			Reason: "must be one of creation, change, payment, delivery",
		}
	}
	s, err := ParseDate(start, loc)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end, loc)
	if err != nil {
		return DateRange{}, err
	}
	if s.After(e) {
		return DateRange{}, &InvalidDateRangeError{Start: s, End: e}
	}
	return DateRange{Start: s, End: e, Type: typ}, nil
}

func (r DateRange) apply(q url.Values) {
	prefix := dateTypePrefixes[r.Type]
	q.Set(prefix+"AtFrom", FormatDate(r.Start))
	q.Set(prefix+"AtTo", FormatDate(r.End))
}

// unixTimestamp converts a date to seconds since the epoch. The item
// listing filters on timestamps and ignores anything before 2000.
func unixTimestamp(value string, loc *time.Location) (int64, error) {
	t, err := ParseDate(value, loc)
	if err != nil {
		return 0, err
	}
	if t.Year() < 2000 {
		return 0, &InvalidParameterError{Name: "last update", Reason: "dates before the year 2000 are not supported"}
	}
	return t.Unix(), nil
}
