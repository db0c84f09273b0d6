package entity

import "time"

// Course is the catalog entry. Lectures are loaded on demand; list endpoints
// return the course row only.
type Course struct {
	ID                string
	Title             string
	Description       string
	Category          string
	ThumbnailPublicID string
	ThumbnailURL      string
	CreatedBy         string
	NumberOfLectures  int
	Lectures          []Lecture
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Lecture is a single piece of course media.
type Lecture struct {
	ID            string
	CourseID      string
	Title         string
	Description   string
	MediaPublicID string
	MediaURL      string
	Position      int
	CreatedAt     time.Time
}
