package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
	"github.com/rkfood/rkfood-backend/pkg/pagination"
)

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type userLoader interface {
	FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Service records in-app notifications for order and login events and mails
// the user when SMTP is configured. Event hooks never fail the caller.
type Service interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
	OrderCanceled(ctx context.Context, order *models.Order)
	DeliveryUpdated(ctx context.Context, order *models.Order)
	LoginOTPIssued(ctx context.Context, user *models.User, code string)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (*Page, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Page is a cursor page of notifications plus the unread badge count.
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

type service struct {
	repo   Repository
	users  userLoader
	mailer mailSender
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the notifications service. The mailer is optional.
func NewService(repo Repository, users userLoader, mailer mailSender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, users: users, mailer: mailer, logg: logg, now: time.Now}, nil
}

// OrderConfirmed records the confirmation and mails the receipt.
func (s *service) OrderConfirmed(ctx context.Context, order *models.Order) {
	title := fmt.Sprintf("Order #%d confirmed", order.OrderNumber)
	message := fmt.Sprintf("Your order #%d for %s has been received by the kitchen.", order.OrderNumber, order.Total.StringFixed(2))
	s.record(ctx, order.UserID, enums.NotificationTypeOrderConfirmed, title, message)
}

// OrderCanceled records the cancellation.
func (s *service) OrderCanceled(ctx context.Context, order *models.Order) {
	title := fmt.Sprintf("Order #%d canceled", order.OrderNumber)
	message := fmt.Sprintf("Order #%d was canceled. You have not been charged.", order.OrderNumber)
	s.record(ctx, order.UserID, enums.NotificationTypeOrderCanceled, title, message)
}

// DeliveryUpdated records a delivery pipeline transition.
func (s *service) DeliveryUpdated(ctx context.Context, order *models.Order) {
	title := fmt.Sprintf("Order #%d is %s", order.OrderNumber, order.DeliveryStatus)
	message := fmt.Sprintf("Delivery status for order #%d changed to %s.", order.OrderNumber, order.DeliveryStatus)
	s.record(ctx, order.UserID, enums.NotificationTypeDeliveryUpdated, title, message)
}

// LoginOTPIssued mails the one-time code and leaves a breadcrumb row. The
// code itself never lands in the database.
func (s *service) LoginOTPIssued(ctx context.Context, user *models.User, code string) {
	if user == nil {
		return
	}
	if s.mailer != nil {
		body := fmt.Sprintf("Your login code is %s. It expires in a few minutes.", code)
		if err := s.mailer.Send(ctx, user.Email, "Your login code", body); err != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "send otp mail", err)
		}
	}
	if _, err := s.repo.Create(ctx, &models.Notification{
		UserID:  user.ID,
		Type:    enums.NotificationTypeLoginOTP,
		Title:   "Login code sent",
		Message: "A one-time login code was sent to your email address.",
	}); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "record otp notification", err)
	}
}

func (s *service) record(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) {
	if _, err := s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "record notification", err)
		return
	}

	if s.mailer == nil {
		return
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "load user for mail", err)
		return
	}
	if err := s.mailer.Send(ctx, user.Email, title, message); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "send notification mail", err)
	}
}

// List pages through the user's notifications, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (*Page, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, userID, unreadOnly, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}

	page := &Page{Notifications: rows, UnreadCount: unread}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// MarkRead marks a single notification as read.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	affected, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead marks every unread notification as read and returns the count.
func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	affected, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return affected, nil
}
