package models

// DailyBucket is one calendar day's accumulated minutes in the weekly chart.
type DailyBucket struct {
	Day   string `json:"day"`
	Value int    `json:"value"`
}

// RemoteStats is the payload returned by the backend stats endpoint:
// authoritative top-line counters plus the raw session history. Absent
// fields decode to their zero values, so defaults are resolved here and
// nowhere else.
type RemoteStats struct {
	TotalMinutes  int             `json:"totalMinutes"`
	TotalSessions int             `json:"totalSessions"`
	CurrentStreak int             `json:"currentStreak"`
	LongestStreak int             `json:"longestStreak"`
	History       []SessionRecord `json:"history"`
}

// StatsView is the derived dashboard model. It is recomputed wholesale on
// every refresh and never mutated in place.
type StatsView struct {
	TotalMinutes  int            `json:"totalMinutes"`
	TotalSessions int            `json:"totalSessions"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	WeeklyChart   []DailyBucket  `json:"weeklyChart"` // always 7 buckets, Sunday first
	LastSession   *SessionRecord `json:"lastSession,omitempty"`
}
