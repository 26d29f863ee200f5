package models

import "time"

// NotificationKind enumerates the interactions that notify.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
)

// Notification is created once per qualifying interaction event and never
// addressed to its own actor.
type Notification struct {
	ID            string           `json:"id" gorm:"primaryKey;size:36"`
	RecipientID   string           `json:"recipient_id" gorm:"size:36;not null;index:idx_notifications_recipient_created,priority:1"`
	ActorID       string           `json:"actor_id" gorm:"size:36;not null"`
	Kind          NotificationKind `json:"kind" gorm:"size:16;not null"`
	SubjectPostID *string          `json:"subject_post_id" gorm:"size:36;index"` // nil for follow
	CreatedAt     time.Time        `json:"created_at" gorm:"index:idx_notifications_recipient_created,priority:2"`
	Read          bool             `json:"read" gorm:"not null;default:false"`

	Recipient    *Account `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	ActorAccount *Account `json:"-" gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE"`
	SubjectPost  *Post    `json:"-" gorm:"foreignKey:SubjectPostID;constraint:OnDelete:CASCADE"`
}

// NotificationView includes actor info
type NotificationView struct {
	Notification
	Actor AccountSummary `json:"actor"`
}
