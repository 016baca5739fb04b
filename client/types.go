package client

import (
	"strings"
	"time"
)

// Wire types mirror the server payloads. The SDK keeps its own copies
// so importers do not reach into server internals.

const (
	MandateNone      = "NONE"
	MandateRequested = "REQUESTED"
	MandateSent      = "SENT"
	MandateCompleted = "COMPLETED"
)

const (
	CategoryMandate = "MANDATE"
	CategoryRelease = "RELEASE"
	CategoryGeneral = "GENERAL"
)

const (
	mandateMarker = "수임 동의"
	releaseMarker = "수임 해제"
)

type User struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`

	ResidentNumber  string `json:"residentNumber,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	Address         string `json:"address,omitempty"`
	AddressDetail   string `json:"addressDetail,omitempty"`
	UserType        string `json:"userType,omitempty"`
	BusinessNumber  string `json:"businessNumber,omitempty"`
	CorporateNumber string `json:"corporateNumber,omitempty"`

	Role            string     `json:"role"`
	PaymentStatus   string     `json:"paymentStatus"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	MandateStatus   string     `json:"mandateStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Notification struct {
	ID        string    `json:"notificationId"`
	UserID    string    `json:"userId"`
	SenderID  string    `json:"senderId,omitempty"`
	Type      string    `json:"type"`
	Category  string    `json:"category,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryOf prefers the explicit category and falls back to the two
// known message phrases for records written before the field existed.
func CategoryOf(n Notification) string {
	switch n.Category {
	case CategoryMandate, CategoryRelease, CategoryGeneral:
		return n.Category
	}

	// release first: release messages mention the mandate phrase too
	if strings.Contains(n.Message, releaseMarker) {
		return CategoryRelease
	}

	if strings.Contains(n.Message, mandateMarker) {
		return CategoryMandate
	}

	return CategoryGeneral
}

type PaymentStatus struct {
	PaymentStatus   string     `json:"paymentStatus"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	Valid           bool       `json:"valid"`
	DaysRemaining   int        `json:"daysRemaining"`
}

type VerificationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`

	BusinessName  string `json:"businessName,omitempty"`
	BusinessType  string `json:"businessType,omitempty"`
	CorporateName string `json:"corporateName,omitempty"`
	CorporateType string `json:"corporateType,omitempty"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`

	ResidentNumber string `json:"residentNumber,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Address        string `json:"address,omitempty"`
	AddressDetail  string `json:"addressDetail,omitempty"`

	UserType        string `json:"userType"`
	BusinessNumber  string `json:"businessNumber,omitempty"`
	CorporateNumber string `json:"corporateNumber,omitempty"`
}

type ProfilePatch struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	PhoneNumber   *string `json:"phoneNumber,omitempty"`
	PostalCode    *string `json:"postalCode,omitempty"`
	Address       *string `json:"address,omitempty"`
	AddressDetail *string `json:"addressDetail,omitempty"`
}

type NotificationList struct {
	Items []Notification `json:"items"`
	Count int            `json:"count"`
}

type MandateList struct {
	Items []User `json:"items"`
	Count int    `json:"count"`
}
