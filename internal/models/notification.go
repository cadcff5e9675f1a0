package models

import "time"

// NotificationType is the closed set of notification categories the system
// emits. Each known type maps to a preference key; types outside this set
// are never restricted by the preference gate.
type NotificationType string

const (
	NotificationTenderInvitation NotificationType = "tenderInvitation"
	NotificationQuestionAnswered NotificationType = "questionAnswered"
	NotificationBidSubmitted     NotificationType = "bidSubmitted"
	NotificationBidAwarded       NotificationType = "bidAwarded"
	NotificationBidRejected      NotificationType = "bidRejected"
	NotificationContractSigning  NotificationType = "contractSigning"
	NotificationContractSigned   NotificationType = "contractSigned"
	NotificationContractAmended  NotificationType = "contractAmended"
	NotificationDeadlineReminder NotificationType = "deadlineReminder"
)

// PreferenceKeyEmailMaster is the master switch; when false no gated email
// goes out regardless of the per-type toggles.
const PreferenceKeyEmailMaster = "emailNotifications"

// PreferenceKey returns the per-type preference key and whether the type is
// one of the known categories.
func (t NotificationType) PreferenceKey() (string, bool) {
	switch t {
	case NotificationTenderInvitation, NotificationQuestionAnswered,
		NotificationBidSubmitted, NotificationBidAwarded, NotificationBidRejected,
		NotificationContractSigning, NotificationContractSigned,
		NotificationContractAmended, NotificationDeadlineReminder:
		return string(t), true
	default:
		return "", false
	}
}

// NotificationPreferences is the per-user boolean map: the master key plus
// one key per notification type. An unset key means "allowed".
type NotificationPreferences map[string]bool

// Allows applies the master switch first, then the per-type toggle.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	if enabled, ok := p[PreferenceKeyEmailMaster]; ok && !enabled {
		return false
	}
	key, known := t.PreferenceKey()
	if !known {
		return true
	}
	if enabled, ok := p[key]; ok {
		return enabled
	}
	return true
}

// Notification is one in-app notification document.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	TenderID  string           `json:"tenderId,omitempty"`
	RefID     string           `json:"refId,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
