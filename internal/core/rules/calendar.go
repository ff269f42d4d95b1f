package rules

import (
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

const dateLayout = "2006-01-02"

// Calendar counts business days for procedural deadlines.
// Weekends, national holidays, configured extra holidays and, optionally,
// the forensic recess (20 December to 20 January) are not business days.
type Calendar struct {
	extra  map[string]bool
	recess bool
}

// NewCalendar builds a calendar from a policy's calendar spec.
// Malformed extra holidays are ignored; Validate reports them.
func NewCalendar(spec domain.CalendarSpec) *Calendar {
	c := &Calendar{extra: make(map[string]bool), recess: spec.Recess}
	for _, h := range spec.ExtraHolidays {
		if d, err := time.Parse(dateLayout, h); err == nil {
			c.extra[d.Format(dateLayout)] = true
		}
	}
	return c
}

// IsBusinessDay reports whether deadlines count on day d.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if c.recess && inRecess(d) {
		return false
	}
	key := d.Format(dateLayout)
	if c.extra[key] {
		return false
	}
	return !nationalHolidays(d.Year())[key]
}

// NextBusinessDay returns the first business day strictly after d.
func (c *Calendar) NextBusinessDay(d time.Time) time.Time {
	next := dateOf(d).AddDate(0, 0, 1)
	for !c.IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// AddBusinessDays returns the day reached after counting n business days from start,
// where start itself is day 1 when it is a business day.
func (c *Calendar) AddBusinessDays(start time.Time, n int) time.Time {
	d := dateOf(start)
	if n <= 0 {
		return d
	}
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	for counted := 1; counted < n; counted++ {
		d = c.NextBusinessDay(d)
	}
	return d
}

// DueDate returns the first counted day and the last day of a deadline of n
// business days published on publishedAt. Counting starts on the next business day.
func (c *Calendar) DueDate(publishedAt time.Time, n int) (start, due time.Time) {
	start = c.NextBusinessDay(publishedAt)
	return start, c.AddBusinessDays(start, n)
}

// ResolveDueDates fills in start and due dates of every deadline in the result.
func ResolveDueDates(result *domain.ClassificationResult, policy *domain.Policy, publishedAt time.Time) {
	if result == nil || len(result.Deadlines) == 0 {
		return
	}
	cal := NewCalendar(policy.Calendar)
	for i := range result.Deadlines {
		start, due := cal.DueDate(publishedAt, result.Deadlines[i].Days)
		result.Deadlines[i].Start = &start
		result.Deadlines[i].DueDate = &due
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inRecess(d time.Time) bool {
	m, day := d.Month(), d.Day()
	return (m == time.December && day >= 20) || (m == time.January && day <= 20)
}

// nationalHolidays returns the Brazilian national and forensic holidays of a year.
func nationalHolidays(year int) map[string]bool {
	fixed := []struct {
		m time.Month
		d int
	}{
		{time.January, 1},
		{time.April, 21},
		{time.May, 1},
		{time.September, 7},
		{time.October, 12},
		{time.November, 2},
		{time.November, 15},
		{time.November, 20},
		{time.December, 8},
		{time.December, 25},
	}
	h := make(map[string]bool, len(fixed)+4)
	for _, f := range fixed {
		h[time.Date(year, f.m, f.d, 0, 0, 0, 0, time.UTC).Format(dateLayout)] = true
	}
	easter := easterSunday(year)
	for _, offset := range []int{-48, -47, -2, 60} {
		h[easter.AddDate(0, 0, offset).Format(dateLayout)] = true
	}
	return h
}

// easterSunday computes Easter with the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
