package domain

import (
	"net/url"
	"strings"
)

// GoogleCalendarLink formats a one-way export link for a task deadline.
// The event spans 09:00-10:00 on the task's date.
func GoogleCalendarLink(t Task) string {
	day := strings.ReplaceAll(t.Date, "-", "")
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", "DEADLINE: "+t.Title)
	v.Set("dates", day+"T090000/"+day+"T100000")
	v.Set("details", t.Description+" \n\n[PlanFlow App]")
	return "https://calendar.google.com/calendar/render?" + v.Encode()
}
