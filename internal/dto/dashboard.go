package dto

import "github.com/academa/academa-api/internal/models"

// AssignmentStatistics summarises a user's homeworks and exams for one
// semester scope.
type AssignmentStatistics struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
	AverageGrade   float64 `json:"average_grade"`
	UpcomingCount  int     `json:"upcoming_count"`
}

// UpcomingCourseGroup holds deadline-ordered assignments for one course.
type UpcomingCourseGroup struct {
	CourseName  string              `json:"course_name"`
	Assignments []models.Assignment `json:"assignments"`
}

// OverviewResponse is the dashboard payload for a semester scope.
type OverviewResponse struct {
	Semester   string                `json:"semester"`
	Statistics AssignmentStatistics  `json:"statistics"`
	Upcoming   []UpcomingCourseGroup `json:"upcoming"`
}
