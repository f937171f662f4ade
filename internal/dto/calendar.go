package dto

import "github.com/academa/academa-api/internal/models"

// CalendarCell is one day in the month grid.
type CalendarCell struct {
	Date        string              `json:"date"`
	InMonth     bool                `json:"in_month"`
	Assignments []models.Assignment `json:"assignments"`
}

// CalendarIndex is a full-week month grid: it starts on the Sunday on or
// before the 1st and ends on the Saturday on or after the last day, so the
// cell count is always a multiple of 7. ByDate maps ISO dates to the
// assignments due that day (only dates with at least one item appear).
type CalendarIndex struct {
	Month  int                            `json:"month"`
	Year   int                            `json:"year"`
	Cells  []CalendarCell                 `json:"cells"`
	ByDate map[string][]models.Assignment `json:"by_date"`
}
