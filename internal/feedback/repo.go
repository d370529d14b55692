package feedback

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	"github.com/rkfood/rkfood-backend/pkg/pagination"
)

// Repository defines persistence operations for comments and site feedback.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindComment(ctx context.Context, userID, menuItemID uuid.UUID) (*models.Comment, error)
	FindCommentByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)
	ListItemComments(ctx context.Context, menuItemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Comment, *pagination.Cursor, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
	FindFeedback(ctx context.Context, userID uuid.UUID, email string, rating enums.Rating, body string) (*models.Feedback, error)
	CreateFeedback(ctx context.Context, entry *models.Feedback) (*models.Feedback, error)
	ListFeedback(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Feedback, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a feedback repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *repository) FindComment(ctx context.Context, userID, menuItemID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND menu_item_id = ?", userID, menuItemID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *repository) FindCommentByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ?", commentID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *repository) ListItemComments(ctx context.Context, menuItemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Comment, *pagination.Cursor, error) {
	bufferedLimit := pagination.LimitWithBuffer(limit)
	q := r.db.WithContext(ctx).Where("menu_item_id = ?", menuItemID)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var comments []models.Comment
	err := q.Order("created_at DESC, id DESC").
		Limit(bufferedLimit).
		Find(&comments).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(comments) == bufferedLimit {
		comments = comments[:bufferedLimit-1]
		last := comments[len(comments)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return comments, next, nil
}

func (r *repository) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", commentID).
		Delete(&models.Comment{}).Error
}

func (r *repository) FindFeedback(ctx context.Context, userID uuid.UUID, email string, rating enums.Rating, body string) (*models.Feedback, error) {
	var entry models.Feedback
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND email = ? AND rating = ? AND body = ?", userID, email, rating, body).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CreateFeedback(ctx context.Context, entry *models.Feedback) (*models.Feedback, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) ListFeedback(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Feedback, *pagination.Cursor, error) {
	bufferedLimit := pagination.LimitWithBuffer(limit)
	q := r.db.WithContext(ctx)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.Feedback
	err := q.Order("created_at DESC, id DESC").
		Limit(bufferedLimit).
		Find(&entries).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(entries) == bufferedLimit {
		entries = entries[:bufferedLimit-1]
		last := entries[len(entries)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return entries, next, nil
}
