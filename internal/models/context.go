package models

import "time"

// AnticipationContext is the point-in-time snapshot of domain data that a
// detection cycle runs against. It is assembled by an external snapshot
// provider, consumed once per cycle, and discarded. Detectors must treat
// it as read-only.
type AnticipationContext struct {
	// Now anchors every temporal comparison in the cycle. Detectors must
	// use it rather than time.Now so a snapshot evaluates consistently.
	Now     time.Time
	Today   time.Time // midnight of the snapshot's local day
	Weekday time.Weekday

	Tasks    []Task
	Events   []CalendarEvent
	Emails   []EmailThread
	Deals    []Deal
	Habits   []Habit
	Accounts []Account
	Bills    []Bill

	// ExistingSignals is the signal set at snapshot time, for detectors
	// or providers that want to reason about what is already raised.
	ExistingSignals []Signal
}

// EmptyContext builds a minimal snapshot anchored at now. Used as the
// worker's fallback when no snapshot provider is configured.
func EmptyContext(now time.Time) *AnticipationContext {
	year, month, day := now.Date()
	return &AnticipationContext{
		Now:     now,
		Today:   time.Date(year, month, day, 0, 0, 0, 0, now.Location()),
		Weekday: now.Weekday(),
	}
}

// EndOfDay returns the last instant of the snapshot's local day.
func (c *AnticipationContext) EndOfDay() time.Time {
	return c.Today.Add(24 * time.Hour)
}

// SameDay reports whether t falls on the snapshot's local day.
func (c *AnticipationContext) SameDay(t time.Time) bool {
	return !t.Before(c.Today) && t.Before(c.EndOfDay())
}

// Task is a to-do item with an optional deadline.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	ProjectID string     `json:"project_id,omitempty"`
	Domain    Domain     `json:"domain"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Completed bool       `json:"completed"`
}

// CalendarEvent is a scheduled event with a concrete time range.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Domain   Domain    `json:"domain"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	AllDay   bool      `json:"all_day"`
}

// EmailThread is a conversation awaiting a reply.
type EmailThread struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Domain     Domain    `json:"domain"`
	ReceivedAt time.Time `json:"received_at"`
	Answered   bool      `json:"answered"`
	Important  bool      `json:"important"`
}

// Deal is a business opportunity in a pipeline.
type Deal struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Domain          Domain     `json:"domain"`
	Stage           string     `json:"stage"`
	Value           float64    `json:"value"`
	LastActivityAt  time.Time  `json:"last_activity_at"`
	ExpectedCloseAt *time.Time `json:"expected_close_at,omitempty"`
	Closed          bool       `json:"closed"`
}

// Habit is a recurring behavior with a running streak.
type Habit struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Domain         Domain `json:"domain"`
	StreakDays     int    `json:"streak_days"`
	CompletedToday bool   `json:"completed_today"`
}

// Account is a financial account balance snapshot.
type Account struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Domain         Domain  `json:"domain"`
	Balance        float64 `json:"balance"`
	MinimumBalance float64 `json:"minimum_balance"`
}

// Bill is an upcoming payment obligation.
type Bill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    Domain    `json:"domain"`
	AccountID string    `json:"account_id,omitempty"`
	Amount    float64   `json:"amount"`
	DueAt     time.Time `json:"due_at"`
	Paid      bool      `json:"paid"`
}
