package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/dto"
	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type assignmentHomeworkSource interface {
	ListAll(ctx context.Context, userID string) ([]models.Homework, error)
}

type assignmentExamSource interface {
	ListAll(ctx context.Context, userID string) ([]models.Exam, error)
}

// AssignmentListRequest captures the query surface of the unified listing.
type AssignmentListRequest struct {
	Filter    models.AssignmentFilter
	SortBy    string
	SortOrder string
}

// AssignmentService serves the unified homework/exam view: filtered and
// sorted listings, statistics and the calendar index.
type AssignmentService struct {
	homeworks assignmentHomeworkSource
	exams     assignmentExamSource
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService creates a new assignment service instance.
func NewAssignmentService(homeworks assignmentHomeworkSource, exams assignmentExamSource, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{homeworks: homeworks, exams: exams, logger: logger, now: time.Now}
}

// List returns the user's assignments after filtering and sorting.
func (s *AssignmentService) List(ctx context.Context, userID string, req AssignmentListRequest) ([]models.Assignment, error) {
	items, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	items = FilterAssignments(items, req.Filter)
	items = SortAssignments(items, req.SortBy, req.SortOrder)
	return items, nil
}

// Statistics aggregates the user's homeworks and exams within the semester
// scope. The FilterAll sentinel covers every semester.
func (s *AssignmentService) Statistics(ctx context.Context, userID, semester string) (dto.AssignmentStatistics, error) {
	homeworks, exams, err := s.loadScoped(ctx, userID, semester)
	if err != nil {
		return dto.AssignmentStatistics{}, err
	}
	return ComputeStatistics(homeworks, exams, s.now().UTC()), nil
}

// Upcoming groups assignments due within the window by course, ordered by
// each course's earliest deadline.
func (s *AssignmentService) Upcoming(ctx context.Context, userID, semester string, windowDays int) ([]dto.UpcomingCourseGroup, error) {
	items, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	items = FilterAssignments(items, models.AssignmentFilter{Semester: semester})
	return GroupUpcomingByCourse(items, s.now().UTC(), windowDays), nil
}

// Calendar builds the month grid with assignments indexed by due date.
func (s *AssignmentService) Calendar(ctx context.Context, userID, semester string, month time.Month, year int) (*dto.CalendarIndex, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}

	items, err := s.loadAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	items = FilterAssignments(items, models.AssignmentFilter{Semester: semester})

	index := BuildCalendarIndex(items, month, year)
	return &index, nil
}

func (s *AssignmentService) loadAll(ctx context.Context, userID string) ([]models.Assignment, error) {
	homeworks, err := s.homeworks.ListAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homeworks")
	}
	exams, err := s.exams.ListAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}

	items := make([]models.Assignment, 0, len(homeworks)+len(exams))
	for _, hw := range homeworks {
		items = append(items, models.HomeworkAssignment(hw))
	}
	for _, exam := range exams {
		items = append(items, models.ExamAssignment(exam))
	}
	return items, nil
}

func (s *AssignmentService) loadScoped(ctx context.Context, userID, semester string) ([]models.Homework, []models.Exam, error) {
	homeworks, err := s.homeworks.ListAll(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homeworks")
	}
	exams, err := s.exams.ListAll(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}

	scope := normalizeFilter(semester)
	if scope == "" {
		return homeworks, exams, nil
	}

	scopedHomeworks := homeworks[:0:0]
	for _, hw := range homeworks {
		if models.HomeworkAssignment(hw).EffectiveSemester() == scope {
			scopedHomeworks = append(scopedHomeworks, hw)
		}
	}
	scopedExams := exams[:0:0]
	for _, exam := range exams {
		if models.ExamAssignment(exam).EffectiveSemester() == scope {
			scopedExams = append(scopedExams, exam)
		}
	}
	return scopedHomeworks, scopedExams, nil
}
