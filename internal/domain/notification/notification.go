package notification

import (
	"errors"
	"strings"
	"time"
)

// Type says which direction the notification travelled.
const (
	TypeClientToTax = "CLIENT_TO_TAX"
	TypeTaxToClient = "TAX_TO_CLIENT"
)

// Category is an explicit tag on the wire format. Legacy rows were
// categorized by matching fixed Korean phrases inside the message text,
// so CategoryOf keeps that fallback alive for untagged records.
type Category string

const (
	CategoryMandate Category = "MANDATE"
	CategoryRelease Category = "RELEASE"
	CategoryGeneral Category = "GENERAL"
)

// The two phrases the legacy backend embeds in mandate-related messages.
// These are an external contract and must stay verbatim.
const (
	MandateMarker = "수임 동의"
	ReleaseMarker = "수임 해제"
)

type Notification struct {
	ID        string    `json:"notificationId"`
	UserID    string    `json:"userId"`
	SenderID  string    `json:"senderId,omitempty"`
	Type      string    `json:"type"`
	Category  Category  `json:"category,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("notification not found")

// CategoryOf resolves the effective category of a notification,
// preferring the explicit field and falling back to substring matching
// for records written before the category field existed.
func CategoryOf(n Notification) Category {
	if n.Category != "" {
		return n.Category
	}

	// release first: release messages also mention the mandate phrase
	if strings.Contains(n.Message, ReleaseMarker) {
		return CategoryRelease
	}

	if strings.Contains(n.Message, MandateMarker) {
		return CategoryMandate
	}

	return CategoryGeneral
}
