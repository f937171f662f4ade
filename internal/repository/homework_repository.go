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

// HomeworkRepository handles persistence for homework rows.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository instantiates a homework repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

const homeworkJoinColumns = `h.id, h.user_id, h.course_id, h.title, h.due_date, h.status, h.grade, h.semester, h.created_at, h.updated_at, c.name AS course_name, c.semester AS course_semester, c.color AS course_color`

// List returns the user's homeworks with their owning course embedded.
func (r *HomeworkRepository) List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	base := "FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1"
	args := []interface{}{userID}

	if filter.Semester != "" && filter.Semester != models.FilterAll {
		base += fmt.Sprintf(" AND COALESCE(NULLIF(h.semester, ''), c.semester) = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.Status != "" && filter.Status != models.FilterAll {
		base += fmt.Sprintf(" AND h.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.CourseID != "" && filter.CourseID != models.FilterAll {
		base += fmt.Sprintf(" AND h.course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"due_date":   "h.due_date",
		"title":      "h.title",
		"status":     "h.status",
		"grade":      "h.grade",
		"created_at": "h.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "h.due_date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", homeworkJoinColumns, base, column, order, size, offset)

	var homeworks []models.Homework
	if err := r.db.SelectContext(ctx, &homeworks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list homeworks: %w", err)
	}
	attachHomeworkCourses(homeworks)

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count homeworks: %w", err)
	}

	return homeworks, total, nil
}

// FindByID loads one of the user's homeworks.
func (r *HomeworkRepository) FindByID(ctx context.Context, userID, id string) (*models.Homework, error) {
	query := fmt.Sprintf("SELECT %s FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.id = $1 AND h.user_id = $2", homeworkJoinColumns)
	var hw models.Homework
	if err := r.db.GetContext(ctx, &hw, query, id, userID); err != nil {
		return nil, err
	}
	hw.Course = courseRefFor(hw.CourseID, hw.CourseName, hw.CourseSemester, hw.CourseColor)
	return &hw, nil
}

// Create inserts a new homework record.
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	if hw.ID == "" {
		hw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	hw.CreatedAt = now
	hw.UpdatedAt = now

	const query = `INSERT INTO homeworks (id, user_id, course_id, title, due_date, status, grade, semester, created_at, updated_at) VALUES (:id, :user_id, :course_id, :title, :due_date, :status, :grade, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// Update modifies an existing homework.
func (r *HomeworkRepository) Update(ctx context.Context, hw *models.Homework) error {
	hw.UpdatedAt = time.Now().UTC()
	const query = `UPDATE homeworks SET title = :title, due_date = :due_date, status = :status, grade = :grade, semester = :semester, course_id = :course_id, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("update homework: %w", err)
	}
	return nil
}

// Delete removes a homework permanently.
func (r *HomeworkRepository) Delete(ctx context.Context, userID, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM homeworks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete homework: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// ListAll returns every homework the user owns, joined with its course, in
// due-date order. Aggregated views filter and sort in memory.
func (r *HomeworkRepository) ListAll(ctx context.Context, userID string) ([]models.Homework, error) {
	query := fmt.Sprintf("SELECT %s FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1 ORDER BY h.due_date ASC", homeworkJoinColumns)
	var homeworks []models.Homework
	if err := r.db.SelectContext(ctx, &homeworks, query, userID); err != nil {
		return nil, fmt.Errorf("list all homeworks: %w", err)
	}
	attachHomeworkCourses(homeworks)
	return homeworks, nil
}

// DistinctSemesters returns the non-empty effective semester labels present
// on the user's homeworks, ascending.
func (r *HomeworkRepository) DistinctSemesters(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT COALESCE(NULLIF(h.semester, ''), c.semester) AS label FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1 AND COALESCE(NULLIF(h.semester, ''), c.semester) IS NOT NULL AND COALESCE(NULLIF(h.semester, ''), c.semester) <> '' ORDER BY label ASC`
	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query, userID); err != nil {
		return nil, fmt.Errorf("distinct homework semesters: %w", err)
	}
	return labels, nil
}

// CountBySemester returns how many of the user's homeworks resolve to the
// label through the effective-semester rule.
func (r *HomeworkRepository) CountBySemester(ctx context.Context, userID, semester string) (int, error) {
	const query = `SELECT COUNT(*) FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1 AND COALESCE(NULLIF(h.semester, ''), c.semester) = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, semester); err != nil {
		return 0, fmt.Errorf("count homeworks by semester: %w", err)
	}
	return count, nil
}

// ListOverdueCandidates returns homeworks across all users whose due date has
// passed and whose status still allows the automatic transition.
func (r *HomeworkRepository) ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Homework, error) {
	const query = `SELECT id, user_id, course_id, title, due_date, status, grade, semester, created_at, updated_at FROM homeworks WHERE status IN ('PENDING', 'IN_PROGRESS') AND due_date < $1`
	var homeworks []models.Homework
	if err := r.db.SelectContext(ctx, &homeworks, query, before); err != nil {
		return nil, fmt.Errorf("list overdue homeworks: %w", err)
	}
	return homeworks, nil
}

// MarkOverdue flips a homework to OVERDUE. The status guard makes the sweep
// lose against a concurrent user write that already left the sweepable
// states, so a manual COMPLETED is never clobbered.
func (r *HomeworkRepository) MarkOverdue(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE homeworks SET status = 'OVERDUE', updated_at = $2 WHERE id = $1 AND status IN ('PENDING', 'IN_PROGRESS')`
	if _, err := r.db.ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("mark homework overdue: %w", err)
	}
	return nil
}

func attachHomeworkCourses(homeworks []models.Homework) {
	for i := range homeworks {
		homeworks[i].Course = courseRefFor(homeworks[i].CourseID, homeworks[i].CourseName, homeworks[i].CourseSemester, homeworks[i].CourseColor)
	}
}

func courseRefFor(id, name string, semester, color *string) *models.CourseRef {
	if id == "" {
		return nil
	}
	return &models.CourseRef{ID: id, Name: name, Semester: semester, Color: color}
}
