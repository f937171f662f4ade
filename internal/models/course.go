package models

import "time"

// Course groups homeworks and exams under a user-owned subject. Semester is a
// free-text label, not a foreign key: it may or may not correspond to an
// entry in the user's semester registry.
type Course struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Semester    *string   `db:"semester" json:"semester,omitempty"`
	Color       *string   `db:"color" json:"color,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseRef is the embedded course payload carried by homework/exam rows.
type CourseRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Semester *string `json:"semester,omitempty"`
	Color    *string `json:"color,omitempty"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Semester  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
