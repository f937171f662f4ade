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

// CourseRepository handles persistence for courses. Every statement is scoped
// to the owning user so foreign rows are indistinguishable from absent ones.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, user_id, name, semester, color, description, created_at, updated_at"

// List returns the user's courses matching provided filters.
func (r *CourseRepository) List(ctx context.Context, userID string, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE user_id = $1"
	args := []interface{}{userID}

	if filter.Semester != "" && filter.Semester != models.FilterAll {
		base += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"semester":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// FindByID loads one of the user's courses.
func (r *CourseRepository) FindByID(ctx context.Context, userID, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 AND user_id = $2", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, userID); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, user_id, name, semester, color, description, created_at, updated_at) VALUES (:id, :user_id, :name, :semester, :color, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, semester = :semester, color = :color, description = :description, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course and its homeworks and exams in one transaction.
func (r *CourseRepository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course delete tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM homeworks WHERE course_id = $1 AND user_id = $2", id, userID); err != nil {
		return fmt.Errorf("delete course homeworks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM exams WHERE course_id = $1 AND user_id = $2", id, userID); err != nil {
		return fmt.Errorf("delete course exams: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1 AND user_id = $2", id, userID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit course delete tx: %w", err)
	}
	return nil
}

// DistinctSemesters returns the non-empty semester labels present on the
// user's courses, ascending.
func (r *CourseRepository) DistinctSemesters(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT semester FROM courses WHERE user_id = $1 AND semester IS NOT NULL AND semester <> '' ORDER BY semester ASC`
	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query, userID); err != nil {
		return nil, fmt.Errorf("distinct course semesters: %w", err)
	}
	return labels, nil
}

// CountBySemester returns how many of the user's courses carry the label.
func (r *CourseRepository) CountBySemester(ctx context.Context, userID, semester string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses WHERE user_id = $1 AND semester = $2", userID, semester); err != nil {
		return 0, fmt.Errorf("count courses by semester: %w", err)
	}
	return count, nil
}
