package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db"
	dbmodels "github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/pagination"
)

type menuItemLoader interface {
	GetMenuItem(ctx context.Context, itemID uuid.UUID) (*dbmodels.MenuItem, error)
}

// Service exposes item comments and free-form site feedback.
type Service interface {
	AddComment(ctx context.Context, userID, menuItemID uuid.UUID, in AddCommentInput) (*dbmodels.Comment, error)
	ListItemComments(ctx context.Context, menuItemID uuid.UUID, params pagination.Params) (*CommentPage, error)
	DeleteComment(ctx context.Context, actorID uuid.UUID, operator bool, commentID uuid.UUID) error
	SubmitFeedback(ctx context.Context, userID uuid.UUID, in SubmitFeedbackInput) (*dbmodels.Feedback, bool, error)
	ListFeedback(ctx context.Context, params pagination.Params) (*FeedbackPage, error)
}

// AddCommentInput carries a new item review.
type AddCommentInput struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"required,max=2000"`
}

// SubmitFeedbackInput carries a site feedback form submission.
type SubmitFeedbackInput struct {
	Email  string `json:"email" validate:"required,email"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"required,max=4000"`
}

// CommentPage is a cursor page of comments.
type CommentPage struct {
	Comments   []dbmodels.Comment `json:"comments"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// FeedbackPage is a cursor page of feedback entries.
type FeedbackPage struct {
	Entries    []dbmodels.Feedback `json:"entries"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

type service struct {
	repo    Repository
	catalog menuItemLoader
}

// NewService builds the feedback service.
func NewService(repo Repository, catalog menuItemLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("feedback repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("menu item loader required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

// AddComment records one review per user per menu item.
func (s *service) AddComment(ctx context.Context, userID, menuItemID uuid.UUID, in AddCommentInput) (*dbmodels.Comment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	rating, err := enums.ParseRating(in.Rating)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rating")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body required")
	}

	if _, err := s.catalog.GetMenuItem(ctx, menuItemID); err != nil {
		return nil, err
	}

	comment, err := s.repo.CreateComment(ctx, &dbmodels.Comment{
		UserID:     userID,
		MenuItemID: menuItemID,
		Rating:     rating,
		Body:       body,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_comments_user_item") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item already reviewed by this user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	return comment, nil
}

// ListItemComments pages through an item's reviews, newest first.
func (s *service) ListItemComments(ctx context.Context, menuItemID uuid.UUID, params pagination.Params) (*CommentPage, error) {
	if _, err := s.catalog.GetMenuItem(ctx, menuItemID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	comments, next, err := s.repo.ListItemComments(ctx, menuItemID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	page := &CommentPage{Comments: comments}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// DeleteComment removes a review. Owners delete their own; operators any.
func (s *service) DeleteComment(ctx context.Context, actorID uuid.UUID, operator bool, commentID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}

	comment, err := s.repo.FindCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comment")
	}
	if !operator && comment.UserID != actorID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
	}

	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete comment")
	}
	return nil
}

// SubmitFeedback stores a feedback form entry, deduplicating exact resubmits.
// The bool result reports whether a new row was created.
func (s *service) SubmitFeedback(ctx context.Context, userID uuid.UUID, in SubmitFeedbackInput) (*dbmodels.Feedback, bool, error) {
	if userID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	rating, err := enums.ParseRating(in.Rating)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rating")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	body := strings.TrimSpace(in.Body)
	if email == "" || body == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email and body are required")
	}

	existing, err := s.repo.FindFeedback(ctx, userID, email, rating, body)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up feedback")
	}

	entry, err := s.repo.CreateFeedback(ctx, &dbmodels.Feedback{
		UserID: userID,
		Email:  email,
		Rating: rating,
		Body:   body,
	})
	if err != nil {
		// A concurrent identical submission wins the race; fall back to it.
		if db.IsUniqueViolation(err, "uq_feedback_tuple") {
			existing, findErr := s.repo.FindFeedback(ctx, userID, email, rating, body)
			if findErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload feedback")
			}
			return existing, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feedback")
	}
	return entry, true, nil
}

// ListFeedback pages through submitted feedback. Operator surface.
func (s *service) ListFeedback(ctx context.Context, params pagination.Params) (*FeedbackPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	entries, next, err := s.repo.ListFeedback(ctx, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feedback")
	}
	page := &FeedbackPage{Entries: entries}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}
