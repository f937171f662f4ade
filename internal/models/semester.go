package models

import "time"

// UserSemester is a user-declared semester label, independent of whether any
// course, homework or exam currently uses it. (user_id, name) is unique.
type UserSemester struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SemesterEntry is one element of the resolved semester set. Registered marks
// labels backed by an explicit UserSemester row; discovered labels only exist
// on data rows.
type SemesterEntry struct {
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
	IsDefault  bool   `json:"is_default"`
}
