package shared

import (
	"encoding/json"
	"time"

	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogPrice struct {
	ProductID       uuid.UUID
	VariantID       string
	Name            string
	UnitBasePrice   decimal.Decimal
	VariantModifier decimal.Decimal
}

type NotificationKind string

const (
	NotificationOrderPlaced        NotificationKind = "order_placed"
	NotificationOrderStatusChanged NotificationKind = "order_status_changed"
	NotificationCouponRejected     NotificationKind = "coupon_rejected"
	NotificationPointsAwarded      NotificationKind = "points_awarded"
	NotificationRewardRedeemed     NotificationKind = "reward_redeemed"
)

const (
	JobStatusPending = "pending"
	JobStatusSent    = "sent"
)

type NotificationJob struct {
	ID        uuid.UUID
	Kind      NotificationKind
	Topic     string
	Key       string
	Payload   []byte
	Status    string
	Attempts  int
	LastError *string
	RunAt     time.Time
	CreatedAt time.Time
	SentAt    *time.Time
}

const (
	TopicOrders  = "orders"
	TopicLoyalty = "loyalty"
	TopicCoupons = "coupons"
)

var notificationTopics = map[NotificationKind]string{
	NotificationOrderPlaced:        TopicOrders,
	NotificationOrderStatusChanged: TopicOrders,
	NotificationCouponRejected:     TopicCoupons,
	NotificationPointsAwarded:      TopicLoyalty,
	NotificationRewardRedeemed:     TopicLoyalty,
}

// NewNotificationJob encodes payload as JSON; key partitions related events.
func NewNotificationJob(kind NotificationKind, key string, payload any, now time.Time) (NotificationJob, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return NotificationJob{}, errs.Wrap(err, "encode notification payload")
	}
	return NotificationJob{
		ID:        uuid.New(),
		Kind:      kind,
		Topic:     notificationTopics[kind],
		Key:       key,
		Payload:   body,
		Status:    JobStatusPending,
		RunAt:     now,
		CreatedAt: now,
	}, nil
}

// IdempotencyKey binds a client supplied checkout key to the order it produced.
type IdempotencyKey struct {
	Key         uuid.UUID
	UserID      uuid.UUID
	RequestHash string
	OrderID     uuid.UUID
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
