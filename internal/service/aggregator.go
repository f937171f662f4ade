package service

import (
	"sort"
	"strings"
	"time"

	"github.com/academa/academa-api/internal/dto"
	"github.com/academa/academa-api/internal/models"
)

// The assignment aggregator: pure functions that turn raw homework/exam
// collections into the filtered, sorted and derived views the API serves.
// All functions leave their input slices untouched.

const isoDate = "2006-01-02"

// DefaultUpcomingWindowDays bounds the upcoming-deadline grouping.
const DefaultUpcomingWindowDays = 30

// FilterAssignments applies a conjunction of independent predicates. The
// FilterAll sentinel (or an empty value) disables a predicate. When
// HideCompleted is set while the status filter is pinned to COMPLETED, the
// status filter is coerced back to "all" so the combination cannot produce a
// guaranteed-empty result.
func FilterAssignments(items []models.Assignment, filter models.AssignmentFilter) []models.Assignment {
	semester := normalizeFilter(filter.Semester)
	status := normalizeFilter(filter.Status)
	courseID := normalizeFilter(filter.CourseID)

	if filter.HideCompleted && status == string(models.StatusCompleted) {
		status = ""
	}

	result := make([]models.Assignment, 0, len(items))
	for _, item := range items {
		if semester != "" && item.EffectiveSemester() != semester {
			continue
		}
		if status != "" && string(item.Status) != status {
			continue
		}
		if courseID != "" && item.CourseID != courseID {
			continue
		}
		if filter.HideCompleted && item.Status == models.StatusCompleted {
			continue
		}
		result = append(result, item)
	}
	return result
}

// SortAssignments orders a copy of items by the requested key. The sort is
// stable: equal keys keep their relative input order. Descending order is the
// exact element-wise reverse of the ascending result, produced by reversing
// rather than by a second comparator.
func SortAssignments(items []models.Assignment, sortBy, order string) []models.Assignment {
	sorted := make([]models.Assignment, len(items))
	copy(sorted, items)

	less := comparatorFor(sortBy)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	if order == models.OrderDescend {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	return sorted
}

func comparatorFor(sortBy string) func(a, b models.Assignment) bool {
	switch sortBy {
	case models.SortByTitle:
		return func(a, b models.Assignment) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case models.SortByCourse:
		return func(a, b models.Assignment) bool {
			return strings.ToLower(a.CourseDisplayName()) < strings.ToLower(b.CourseDisplayName())
		}
	case models.SortByStatus:
		return func(a, b models.Assignment) bool {
			return statusRank(a.Status) < statusRank(b.Status)
		}
	case models.SortByGrade:
		// A missing grade orders as zero, it does not sort last.
		return func(a, b models.Assignment) bool {
			return gradeOrZero(a.Grade) < gradeOrZero(b.Grade)
		}
	default:
		return func(a, b models.Assignment) bool {
			return a.DueDate.Before(b.DueDate)
		}
	}
}

func statusRank(s models.AssignmentStatus) int {
	switch s {
	case models.StatusPending:
		return 0
	case models.StatusInProgress:
		return 1
	case models.StatusCompleted:
		return 2
	case models.StatusOverdue:
		return 3
	default:
		return 4
	}
}

func gradeOrZero(grade *float64) float64 {
	if grade == nil {
		return 0
	}
	return *grade
}

// DeriveOverdue selects the items whose due date has passed and whose status
// still allows the automatic OVERDUE transition. COMPLETED and OVERDUE items
// are never selected, regardless of how far past due they are.
func DeriveOverdue(items []models.Assignment, now time.Time) []models.Assignment {
	var due []models.Assignment
	for _, item := range items {
		if item.Status == models.StatusCompleted || item.Status == models.StatusOverdue {
			continue
		}
		if item.DueDate.Before(now) {
			due = append(due, item)
		}
	}
	return due
}

// ComputeStatistics aggregates status counts, completion rate, the mean of
// graded exams and the number of upcoming items. Empty inputs yield zeros,
// never a division error.
func ComputeStatistics(homeworks []models.Homework, exams []models.Exam, now time.Time) dto.AssignmentStatistics {
	stats := dto.AssignmentStatistics{}

	countStatus := func(s models.AssignmentStatus) {
		stats.Total++
		switch s {
		case models.StatusPending:
			stats.Pending++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusOverdue:
			stats.Overdue++
		}
	}

	for _, hw := range homeworks {
		countStatus(hw.Status)
		if hw.DueDate.After(now) {
			stats.UpcomingCount++
		}
	}

	var gradeSum float64
	var gradeCount int
	for _, exam := range exams {
		countStatus(exam.Status)
		if exam.ExamDate.After(now) {
			stats.UpcomingCount++
		}
		if exam.Grade != nil {
			gradeSum += *exam.Grade
			gradeCount++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	if gradeCount > 0 {
		stats.AverageGrade = gradeSum / float64(gradeCount)
	}
	return stats
}

// GroupUpcomingByCourse collects items due within [now, now+windowDays],
// sorted ascending by date, grouped under the resolved course name. Groups
// appear in order of their earliest deadline.
func GroupUpcomingByCourse(items []models.Assignment, now time.Time, windowDays int) []dto.UpcomingCourseGroup {
	if windowDays <= 0 {
		windowDays = DefaultUpcomingWindowDays
	}
	cutoff := now.AddDate(0, 0, windowDays)

	var upcoming []models.Assignment
	for _, item := range items {
		if item.DueDate.Before(now) || item.DueDate.After(cutoff) {
			continue
		}
		upcoming = append(upcoming, item)
	}
	upcoming = SortAssignments(upcoming, models.SortByDueDate, models.OrderAscend)

	index := make(map[string]int)
	var groups []dto.UpcomingCourseGroup
	for _, item := range upcoming {
		name := item.CourseDisplayName()
		pos, ok := index[name]
		if !ok {
			pos = len(groups)
			index[name] = pos
			groups = append(groups, dto.UpcomingCourseGroup{CourseName: name})
		}
		groups[pos].Assignments = append(groups[pos].Assignments, item)
	}
	return groups
}

// BuildCalendarIndex lays out the month as full weeks: the grid runs from the
// Sunday on or before the 1st through the Saturday on or after the last day
// of the month, so its length is always a multiple of 7.
func BuildCalendarIndex(items []models.Assignment, month time.Month, year int) dto.CalendarIndex {
	byDate := make(map[string][]models.Assignment)
	for _, item := range items {
		key := item.DueDate.UTC().Format(isoDate)
		byDate[key] = append(byDate[key], item)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	index := dto.CalendarIndex{
		Month:  int(month),
		Year:   year,
		ByDate: make(map[string][]models.Assignment),
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(isoDate)
		cell := dto.CalendarCell{
			Date:        key,
			InMonth:     day.Month() == month,
			Assignments: byDate[key],
		}
		index.Cells = append(index.Cells, cell)
		if len(cell.Assignments) > 0 {
			index.ByDate[key] = cell.Assignments
		}
	}
	return index
}

func normalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == models.FilterAll {
		return ""
	}
	return value
}
