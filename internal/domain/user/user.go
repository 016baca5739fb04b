package user

import (
	"errors"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
)

const (
	RoleClient        = "CLIENT"
	RoleTaxAccountant = "TAX_ACCOUNTANT"
)

const (
	TypeIndividual  = "INDIVIDUAL"
	TypeCorporate   = "CORPORATE"
	TypeNonBusiness = "NON_BUSINESS"
)

const (
	PaymentPaid   = "PAID"
	PaymentUnpaid = "UNPAID"
)

type User struct {
	ID           string `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Name         string `json:"name"`

	ResidentNumber  string `json:"residentNumber,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	Address         string `json:"address,omitempty"`
	AddressDetail   string `json:"addressDetail,omitempty"`
	UserType        string `json:"userType,omitempty"`
	BusinessNumber  string `json:"businessNumber,omitempty"`
	CorporateNumber string `json:"corporateNumber,omitempty"`

	Role            string         `json:"role"`
	PaymentStatus   string         `json:"paymentStatus"`
	LastPaymentDate *time.Time     `json:"lastPaymentDate,omitempty"`
	MandateStatus   mandate.Status `json:"mandateStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound         = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already in use")
	ErrEmailTaken       = errors.New("email already in use")
	ErrNotTaxAccountant = errors.New("user is not a tax accountant")
)

func ValidRole(r string) bool {
	return r == RoleClient || r == RoleTaxAccountant
}

func ValidUserType(t string) bool {
	switch t {
	case TypeIndividual, TypeCorporate, TypeNonBusiness:
		return true
	default:
		return false
	}
}

// ProfilePatch is a partial update. Nil fields are left untouched so a
// patch carrying only a name does not wipe the rest of the profile.
type ProfilePatch struct {
	Name          *string `json:"name" binding:"omitempty,min=1"`
	Email         *string `json:"email" binding:"omitempty,email"`
	PhoneNumber   *string `json:"phoneNumber"`
	PostalCode    *string `json:"postalCode"`
	Address       *string `json:"address"`
	AddressDetail *string `json:"addressDetail"`
}

func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}

	if p.Email != nil {
		u.Email = *p.Email
	}

	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}

	if p.PostalCode != nil {
		u.PostalCode = *p.PostalCode
	}

	if p.Address != nil {
		u.Address = *p.Address
	}

	if p.AddressDetail != nil {
		u.AddressDetail = *p.AddressDetail
	}
}
