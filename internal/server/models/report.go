package models

import "time"

type Report struct {
	ID         int64
	BookID     int64
	UserID     int64
	ReportedAt time.Time
}

// ReportView is a report joined with its reporter and book for moderators.
type ReportView struct {
	Firstname  string    `json:"firstname"`
	Lastname   string    `json:"lastname"`
	BookID     string    `json:"bookId"`
	Title      string    `json:"title"`
	ReportedAt time.Time `json:"reportedAt"`
}
