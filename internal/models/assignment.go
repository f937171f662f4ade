package models

import (
	"strings"
	"time"
)

// AssignmentStatus is the shared lifecycle state for homeworks and exams.
type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "PENDING"
	StatusInProgress AssignmentStatus = "IN_PROGRESS"
	StatusCompleted  AssignmentStatus = "COMPLETED"
	StatusOverdue    AssignmentStatus = "OVERDUE"
)

// Valid reports whether the status is one of the known states.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	default:
		return false
	}
}

// AssignmentType distinguishes the two record kinds in the unified view.
type AssignmentType string

const (
	TypeHomework AssignmentType = "homework"
	TypeExam     AssignmentType = "exam"
)

// Filter and sort sentinels shared by list endpoints.
const (
	FilterAll = "all"

	SortByDueDate = "dueDate"
	SortByTitle   = "title"
	SortByCourse  = "course"
	SortByStatus  = "status"
	SortByGrade   = "grade"

	OrderAscend  = "ascend"
	OrderDescend = "descend"
)

// Homework is a user-owned homework row joined with its owning course.
type Homework struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"-"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Title     string           `db:"title" json:"title"`
	DueDate   time.Time        `db:"due_date" json:"due_date"`
	Status    AssignmentStatus `db:"status" json:"status"`
	Grade     *float64         `db:"grade" json:"grade,omitempty"`
	Semester  *string          `db:"semester" json:"semester,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`

	CourseName     string  `db:"course_name" json:"-"`
	CourseSemester *string `db:"course_semester" json:"-"`
	CourseColor    *string `db:"course_color" json:"-"`

	Course *CourseRef `db:"-" json:"course,omitempty"`
}

// Exam is a user-owned exam row joined with its owning course.
type Exam struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"-"`
	CourseID        string           `db:"course_id" json:"course_id"`
	Title           string           `db:"title" json:"title"`
	ExamDate        time.Time        `db:"exam_date" json:"exam_date"`
	ExamType        *string          `db:"exam_type" json:"exam_type,omitempty"`
	Location        *string          `db:"location" json:"location,omitempty"`
	DurationMinutes *int             `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Status          AssignmentStatus `db:"status" json:"status"`
	Grade           *float64         `db:"grade" json:"grade,omitempty"`
	Semester        *string          `db:"semester" json:"semester,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`

	CourseName     string  `db:"course_name" json:"-"`
	CourseSemester *string `db:"course_semester" json:"-"`
	CourseColor    *string `db:"course_color" json:"-"`

	Course *CourseRef `db:"-" json:"course,omitempty"`
}

// Assignment is the unified read view over a homework or exam. DueDate is
// normalized from Homework.DueDate or Exam.ExamDate.
type Assignment struct {
	ID       string           `json:"id"`
	Type     AssignmentType   `json:"type"`
	Title    string           `json:"title"`
	DueDate  time.Time        `json:"due_date"`
	Status   AssignmentStatus `json:"status"`
	Grade    *float64         `json:"grade,omitempty"`
	CourseID string           `json:"course_id"`
	Semester *string          `json:"semester,omitempty"`
	Course   *CourseRef       `json:"course,omitempty"`
}

// HomeworkAssignment lifts a homework row into the unified view.
func HomeworkAssignment(hw Homework) Assignment {
	return Assignment{
		ID:       hw.ID,
		Type:     TypeHomework,
		Title:    hw.Title,
		DueDate:  hw.DueDate,
		Status:   hw.Status,
		Grade:    hw.Grade,
		CourseID: hw.CourseID,
		Semester: hw.Semester,
		Course:   hw.Course,
	}
}

// ExamAssignment lifts an exam row into the unified view.
func ExamAssignment(e Exam) Assignment {
	return Assignment{
		ID:       e.ID,
		Type:     TypeExam,
		Title:    e.Title,
		DueDate:  e.ExamDate,
		Status:   e.Status,
		Grade:    e.Grade,
		CourseID: e.CourseID,
		Semester: e.Semester,
		Course:   e.Course,
	}
}

// EffectiveSemester resolves the semester label for filtering: the item's own
// label when set, otherwise the owning course's label. This is the single
// shared resolution point; nothing else re-derives it.
func (a Assignment) EffectiveSemester() string {
	if a.Semester != nil && strings.TrimSpace(*a.Semester) != "" {
		return *a.Semester
	}
	if a.Course != nil && a.Course.Semester != nil {
		return *a.Course.Semester
	}
	return ""
}

// CourseDisplayName returns the embedded course name or an explicit fallback
// when the reference cannot be resolved.
func (a Assignment) CourseDisplayName() string {
	if a.Course != nil && a.Course.Name != "" {
		return a.Course.Name
	}
	return "Unknown Course"
}

// AssignmentFilter is a conjunction of independent predicates. The zero value
// (or FilterAll sentinels) matches everything.
type AssignmentFilter struct {
	Semester      string
	Status        string
	CourseID      string
	HideCompleted bool
}

// HomeworkFilter captures listing criteria for homework rows.
type HomeworkFilter struct {
	Semester  string
	Status    string
	CourseID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ExamFilter captures listing criteria for exam rows.
type ExamFilter struct {
	Semester  string
	Status    string
	CourseID  string
	ExamType  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
