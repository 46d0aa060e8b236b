package domain

import (
	"strings"
	"time"
)

// CountryPrefix replaces the leading trunk "0" of local numbers.
const CountryPrefix = "+254"

type Customer struct {
	ID          string
	Name        string
	Code        string
	PhoneNumber string
	Email       string
	CreatedAt   time.Time
}

// NormalizePhone rewrites a phone number into international form:
// "0712..." becomes "+254712...", "+..." is kept, anything else gets a "+".
// Already normalised input is returned unchanged.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "0"):
		return CountryPrefix + phone[1:]
	case strings.HasPrefix(phone, "+"):
		return phone
	default:
		return "+" + phone
	}
}

type Registration struct {
	Code        string
	Password    string
	Name        string
	PhoneNumber string
	Email       string
}

func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Code) == "":
		return Invalid("code", "is required")
	case r.Password == "":
		return Invalid("password", "is required")
	case strings.TrimSpace(r.Name) == "":
		return Invalid("name", "is required")
	case strings.TrimSpace(r.PhoneNumber) == "":
		return Invalid("phone_number", "is required")
	}
	return nil
}

// Identity is the login record owned by the identity collaborator.
type Identity struct {
	Code         string
	PasswordHash []byte
	Email        string
	CreatedAt    time.Time
}
