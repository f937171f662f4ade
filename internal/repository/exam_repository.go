package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academa/academa-api/internal/models"
)

// ExamRepository handles persistence for exam rows.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository instantiates an exam repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examJoinColumns = `e.id, e.user_id, e.course_id, e.title, e.exam_date, e.exam_type, e.location, e.duration_minutes, e.status, e.grade, e.semester, e.created_at, e.updated_at, c.name AS course_name, c.semester AS course_semester, c.color AS course_color`

// List returns the user's exams with their owning course embedded.
func (r *ExamRepository) List(ctx context.Context, userID string, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.user_id = $1"
	args := []interface{}{userID}

	if filter.Semester != "" && filter.Semester != models.FilterAll {
		base += fmt.Sprintf(" AND COALESCE(NULLIF(e.semester, ''), c.semester) = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.Status != "" && filter.Status != models.FilterAll {
		base += fmt.Sprintf(" AND e.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.CourseID != "" && filter.CourseID != models.FilterAll {
		base += fmt.Sprintf(" AND e.course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.ExamType != "" {
		base += fmt.Sprintf(" AND e.exam_type = $%d", len(args)+1)
		args = append(args, filter.ExamType)
	}

	allowedSorts := map[string]string{
		"exam_date":  "e.exam_date",
		"title":      "e.title",
		"status":     "e.status",
		"grade":      "e.grade",
		"created_at": "e.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.exam_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", examJoinColumns, base, column, order, size, offset)

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}
	attachExamCourses(exams)

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	return exams, total, nil
}

// FindByID loads one of the user's exams.
func (r *ExamRepository) FindByID(ctx context.Context, userID, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.id = $1 AND e.user_id = $2", examJoinColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id, userID); err != nil {
		return nil, err
	}
	exam.Course = courseRefFor(exam.CourseID, exam.CourseName, exam.CourseSemester, exam.CourseColor)
	return &exam, nil
}

// Create inserts a new exam record.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now

	const query = `INSERT INTO exams (id, user_id, course_id, title, exam_date, exam_type, location, duration_minutes, status, grade, semester, created_at, updated_at) VALUES (:id, :user_id, :course_id, :title, :exam_date, :exam_type, :location, :duration_minutes, :status, :grade, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an existing exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, exam_date = :exam_date, exam_type = :exam_type, location = :location, duration_minutes = :duration_minutes, status = :status, grade = :grade, semester = :semester, course_id = :course_id, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam permanently.
func (r *ExamRepository) Delete(ctx context.Context, userID, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM exams WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete exam: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// ListAll returns every exam the user owns, joined with its course, in date
// order. Aggregated views filter and sort in memory.
func (r *ExamRepository) ListAll(ctx context.Context, userID string) ([]models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.user_id = $1 ORDER BY e.exam_date ASC", examJoinColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, userID); err != nil {
		return nil, fmt.Errorf("list all exams: %w", err)
	}
	attachExamCourses(exams)
	return exams, nil
}

// DistinctSemesters returns the non-empty effective semester labels present
// on the user's exams, ascending.
func (r *ExamRepository) DistinctSemesters(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT COALESCE(NULLIF(e.semester, ''), c.semester) AS label FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.user_id = $1 AND COALESCE(NULLIF(e.semester, ''), c.semester) IS NOT NULL AND COALESCE(NULLIF(e.semester, ''), c.semester) <> '' ORDER BY label ASC`
	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query, userID); err != nil {
		return nil, fmt.Errorf("distinct exam semesters: %w", err)
	}
	return labels, nil
}

// CountBySemester returns how many of the user's exams resolve to the label
// through the effective-semester rule.
func (r *ExamRepository) CountBySemester(ctx context.Context, userID, semester string) (int, error) {
	const query = `SELECT COUNT(*) FROM exams e JOIN courses c ON c.id = e.course_id WHERE e.user_id = $1 AND COALESCE(NULLIF(e.semester, ''), c.semester) = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, semester); err != nil {
		return 0, fmt.Errorf("count exams by semester: %w", err)
	}
	return count, nil
}

// ListOverdueCandidates returns exams across all users whose date has passed
// and whose status still allows the automatic transition.
func (r *ExamRepository) ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Exam, error) {
	const query = `SELECT id, user_id, course_id, title, exam_date, exam_type, location, duration_minutes, status, grade, semester, created_at, updated_at FROM exams WHERE status IN ('PENDING', 'IN_PROGRESS') AND exam_date < $1`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, before); err != nil {
		return nil, fmt.Errorf("list overdue exams: %w", err)
	}
	return exams, nil
}

// MarkOverdue flips an exam to OVERDUE with the same guard as homeworks.
func (r *ExamRepository) MarkOverdue(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE exams SET status = 'OVERDUE', updated_at = $2 WHERE id = $1 AND status IN ('PENDING', 'IN_PROGRESS')`
	if _, err := r.db.ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("mark exam overdue: %w", err)
	}
	return nil
}

func attachExamCourses(exams []models.Exam) {
	for i := range exams {
		exams[i].Course = courseRefFor(exams[i].CourseID, exams[i].CourseName, exams[i].CourseSemester, exams[i].CourseColor)
	}
}
