package social

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/logging"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

const defaultMaxPageSize = 100

// Page is one page of a user's inbox
type Page struct {
	Items    []*models.Notification `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Total    int64                  `json:"total"`
}

// Notifier creates and reads notifications
type Notifier struct {
	repo        *db.Repository
	maxPageSize int
	logger      *zap.Logger

	created metric.Int64Counter
	skipped metric.Int64Counter
}

// NewNotifier creates a notifier. maxPageSize bounds ListForUser.
func NewNotifier(repo *db.Repository, maxPageSize int, logger *zap.Logger) *Notifier {
	if maxPageSize <= 0 {
		maxPageSize = defaultMaxPageSize
	}
	return &Notifier{
		repo:        repo,
		maxPageSize: maxPageSize,
		logger:      logger.With(zap.String("component", "notifier")),
		created:     telemetry.Int64Counter(telemetry.MetricNotificationsCreated, "Notifications persisted"),
		skipped:     telemetry.Int64Counter(telemetry.MetricNotificationsSkipped, "Fan-out recipients skipped"),
	}
}

// WithTx returns a copy of the notifier bound to tx
func (n *Notifier) WithTx(tx *db.Repository) *Notifier {
	cp := *n
	cp.repo = tx
	return &cp
}

// NotifyOne creates a single unread notification for recipientID
func (n *Notifier) NotifyOne(ctx context.Context, recipientID, senderID uint, typ models.NotificationType, message string) (notif *models.Notification, err error) {
	const op = "notify.one"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int64("recipient_id", int64(recipientID)),
		attribute.String("type", string(typ)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if !typ.Valid() {
		return nil, invalid(op, "unknown notification type %q", typ)
	}

	users := db.NewUserRepository(n.repo)
	if err := requireUser(ctx, users, op, senderID, "sender"); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, users, op, recipientID, "recipient"); err != nil {
		return nil, err
	}

	notif = &models.Notification{
		UserID:       recipientID,
		SenderUserID: senderID,
		Type:         typ,
		Message:      message,
	}
	if err := db.NewNotificationRepository(n.repo).Create(ctx, notif); err != nil {
		return nil, storageErr(op, err)
	}
	n.created.Add(ctx, 1, telemetry.Attr("type", string(typ)))
	return notif, nil
}

// NotifyMany creates one notification per recipient and returns how many
// were persisted. The sender is resolved once; a missing sender fails the
// call. Each recipient is written in its own savepoint so a missing user or
// a failed insert only skips that recipient. Duplicate IDs are not collapsed.
func (n *Notifier) NotifyMany(ctx context.Context, recipientIDs []uint, senderID uint, typ models.NotificationType, message string) (count int, err error) {
	const op = "notify.many"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int("recipients", len(recipientIDs)),
		attribute.String("type", string(typ)),
	))
	defer func() {
		span.SetAttributes(attribute.Int("created", count))
		telemetry.EndSpan(span, err)
	}()

	if !typ.Valid() {
		return 0, invalid(op, "unknown notification type %q", typ)
	}

	logger := logging.WithContext(ctx, n.logger)

	err = n.repo.Transaction(ctx, func(tx *db.Repository) error {
		if err := requireUser(ctx, db.NewUserRepository(tx), op, senderID, "sender"); err != nil {
			return err
		}

		for _, recipientID := range recipientIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			rid := recipientID
			err := tx.Transaction(ctx, func(sp *db.Repository) error {
				if err := requireUser(ctx, db.NewUserRepository(sp), op, rid, "recipient"); err != nil {
					return err
				}
				return db.NewNotificationRepository(sp).Create(ctx, &models.Notification{
					UserID:       rid,
					SenderUserID: senderID,
					Type:         typ,
					Message:      message,
				})
			})
			if err != nil {
				logger.Warn("Skipping notification recipient",
					zap.Uint("recipient_id", rid),
					zap.Uint("sender_id", senderID),
					zap.String("type", string(typ)),
					zap.Error(err))
				n.skipped.Add(ctx, 1, telemetry.Attr("type", string(typ)))
				continue
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr(op, err)
	}

	n.created.Add(ctx, int64(count), telemetry.Attr("type", string(typ)))
	return count, nil
}

// NotifyFollowers notifies every user following authorID at call time
func (n *Notifier) NotifyFollowers(ctx context.Context, authorID uint, typ models.NotificationType, message string) (int, error) {
	followerIDs, err := db.NewFollowRepository(n.repo).FollowerIDs(ctx, authorID)
	if err != nil {
		return 0, storageErr("notify.followers", err)
	}
	if len(followerIDs) == 0 {
		return 0, nil
	}
	return n.NotifyMany(ctx, followerIDs, authorID, typ, message)
}

// ListForUser returns page (zero-based) of userID's inbox, newest first.
// pageSize is clamped to the configured maximum.
func (n *Notifier) ListForUser(ctx context.Context, userID uint, page, pageSize int) (result *Page, err error) {
	const op = "notify.list"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer func() { telemetry.EndSpan(span, err) }()

	if page < 0 {
		return nil, invalid(op, "page must not be negative")
	}
	if pageSize <= 0 {
		return nil, invalid(op, "page size must be positive")
	}
	if pageSize > n.maxPageSize {
		pageSize = n.maxPageSize
	}

	repo := db.NewNotificationRepository(n.repo)
	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	items, err := repo.ListByUser(ctx, userID, page*pageSize, pageSize)
	if err != nil {
		return nil, storageErr(op, err)
	}

	return &Page{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// ListUnread returns every unread notification of userID, newest first
func (n *Notifier) ListUnread(ctx context.Context, userID uint) ([]*models.Notification, error) {
	items, err := db.NewNotificationRepository(n.repo).ListUnread(ctx, userID)
	if err != nil {
		return nil, storageErr("notify.unread", err)
	}
	return items, nil
}

// ListByType returns userID's notifications of one type, newest first
func (n *Notifier) ListByType(ctx context.Context, userID uint, typ models.NotificationType) ([]*models.Notification, error) {
	const op = "notify.by_type"
	if !typ.Valid() {
		return nil, invalid(op, "unknown notification type %q", typ)
	}
	items, err := db.NewNotificationRepository(n.repo).ListByType(ctx, userID, typ)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

// UnreadCount counts unread notifications of userID
func (n *Notifier) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := db.NewNotificationRepository(n.repo).CountUnread(ctx, userID)
	if err != nil {
		return 0, storageErr("notify.unread_count", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Marking twice is not an error.
func (n *Notifier) MarkRead(ctx context.Context, notificationID uint) error {
	const op = "notify.mark_read"
	repo := db.NewNotificationRepository(n.repo)

	notif, err := repo.GetByID(ctx, notificationID)
	if err != nil {
		return storageErr(op, err)
	}
	if notif == nil {
		return notFound(op, "notification %d does not exist", notificationID)
	}
	if notif.IsRead {
		return nil
	}
	if _, err := repo.MarkRead(ctx, notificationID); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// MarkAllRead flags every unread notification of userID as read with a
// single UPDATE and returns how many changed
func (n *Notifier) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	changed, err := db.NewNotificationRepository(n.repo).MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storageErr("notify.mark_all_read", err)
	}
	return changed, nil
}

// requireUser fails with NotFound when id does not name a user
func requireUser(ctx context.Context, users *db.UserRepository, op string, id uint, role string) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return storageErr(op, err)
	}
	if !ok {
		return notFound(op, "%s %d does not exist", role, id)
	}
	return nil
}
