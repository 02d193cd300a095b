package notify

import "time"

// DataReminderID is the data key that identifies a reminder notification.
const DataReminderID = "reminderId"

// CalendarTrigger fires once at a wall clock date and time.
type CalendarTrigger struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// TriggerAt returns the calendar trigger for t as seen in loc.
func TriggerAt(t time.Time, loc *time.Location) CalendarTrigger {
	t = t.In(loc)
	return CalendarTrigger{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time resolves the trigger in loc.
func (c CalendarTrigger) Time(loc *time.Location) time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// Notification is a local notification to deliver at Trigger.
type Notification struct {
	Title   string
	Body    string
	Data    map[string]string
	Trigger CalendarTrigger
}

// Key identifies the notification for replacement and cancellation.
func (n Notification) Key() string {
	return n.Data[DataReminderID]
}

// Handle describes a scheduled notification.
type Handle struct {
	Key    string    `json:"key"`
	FireAt time.Time `json:"fireAt"`
}
