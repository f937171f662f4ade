package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academa/academa-api/internal/models"
)

// SemesterRepository handles persistence for explicitly registered semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// ListByUser returns the user's registered semesters in insertion order.
func (r *SemesterRepository) ListByUser(ctx context.Context, userID string) ([]models.UserSemester, error) {
	const query = `SELECT id, user_id, name, created_at FROM user_semesters WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	var semesters []models.UserSemester
	if err := r.db.SelectContext(ctx, &semesters, query, userID); err != nil {
		return nil, fmt.Errorf("list user semesters: %w", err)
	}
	return semesters, nil
}

// ExistsByName checks whether the user already registered the label.
func (r *SemesterRepository) ExistsByName(ctx context.Context, userID, name string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM user_semesters WHERE user_id = $1 AND name = $2 LIMIT 1", userID, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester existence: %w", err)
	}
	return true, nil
}

// Create registers a new semester label for the user.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.UserSemester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	semester.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO user_semesters (id, user_id, name, created_at) VALUES (:id, :user_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Rename changes a registered semester's label in place. The creation time is
// kept so the registry ordering does not shift.
func (r *SemesterRepository) Rename(ctx context.Context, userID, oldName, newName string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE user_semesters SET name = $3 WHERE user_id = $1 AND name = $2", userID, oldName, newName)
	if err != nil {
		return 0, fmt.Errorf("rename semester: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// DeleteByName removes a registered semester label.
func (r *SemesterRepository) DeleteByName(ctx context.Context, userID, name string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_semesters WHERE user_id = $1 AND name = $2", userID, name)
	if err != nil {
		return 0, fmt.Errorf("delete semester: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// CountByUser returns how many semesters the user has registered.
func (r *SemesterRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM user_semesters WHERE user_id = $1", userID); err != nil {
		return 0, fmt.Errorf("count user semesters: %w", err)
	}
	return count, nil
}
