package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/api/responses"
	"github.com/rkfood/rkfood-backend/api/validators"
	feedbacksvc "github.com/rkfood/rkfood-backend/internal/feedback"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

// AddComment posts the caller's review on a menu item.
func AddComment(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feedbacksvc.AddCommentInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), userID, itemID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCommentResponse(*comment))
	}
}

// ListItemComments pages through the reviews on a menu item.
func ListItemComments(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListItemComments(r.Context(), itemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comments := make([]commentResponse, 0, len(page.Comments))
		for _, comment := range page.Comments {
			comments = append(comments, newCommentResponse(comment))
		}
		responses.WriteSuccess(w, commentPageResponse{Comments: comments, NextCursor: page.NextCursor})
	}
}

// DeleteComment removes a review. Owners delete their own; operators
// delete anyone's.
func DeleteComment(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		commentID, err := pathUUID(r, "commentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteComment(r.Context(), userID, isOperator(r), commentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// SubmitFeedback takes the caller's feedback form. A repeat submission of
// the identical form answers 200 instead of 201.
func SubmitFeedback(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feedbacksvc.SubmitFeedbackInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, created, err := svc.SubmitFeedback(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newFeedbackResponse(*entry))
	}
}

// ListFeedback pages through submitted feedback. Operator surface.
func ListFeedback(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListFeedback(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]feedbackResponse, 0, len(page.Entries))
		for _, entry := range page.Entries {
			entries = append(entries, newFeedbackResponse(entry))
		}
		responses.WriteSuccess(w, feedbackPageResponse{Entries: entries, NextCursor: page.NextCursor})
	}
}

type commentResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type commentPageResponse struct {
	Comments   []commentResponse `json:"comments"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type feedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type feedbackPageResponse struct {
	Entries    []feedbackResponse `json:"entries"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func newCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:         comment.ID,
		UserID:     comment.UserID,
		MenuItemID: comment.MenuItemID,
		Rating:     int(comment.Rating),
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
}

func newFeedbackResponse(entry models.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Email:     entry.Email,
		Rating:    int(entry.Rating),
		Body:      entry.Body,
		CreatedAt: entry.CreatedAt,
	}
}
