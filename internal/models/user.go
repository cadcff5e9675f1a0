package models

import "time"

// User is a registered account. Notification preferences live on the user
// document; the preference gate reads them from here.
type User struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
	FirstName   string                  `json:"firstName,omitempty"`
	LastName    string                  `json:"lastName,omitempty"`
	CompanyID   string                  `json:"companyId,omitempty"`
	Preferences NotificationPreferences `json:"notificationPreferences,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// ProjectRef links an award and its contract to the owning project.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
