package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"jecistore/internal/domain"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[\p{L}0-9 _'.\-]{1,60}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9-]{1,60}$`)
	reTracking = regexp.MustCompile(`^[A-Za-z0-9_-]{0,40}$`)
	reUUID     = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)
)

// MaxQuantity caps a single cart request.
const MaxQuantity = 99

// Quantity parses a quantity typed by the shopper. Blank or non-numeric input
// is an InvalidQuantityError; sign checks are left to the operation.
func Quantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxQuantity {
		return 0, &domain.InvalidQuantityError{Input: s}
	}
	return n, nil
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:60])
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive numeric resource id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

func OrderID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUUID.MatchString(s)
}

func Slug(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reSlug.MatchString(s)
}

func TrackingCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reTracking.MatchString(s)
}

// Price accepts a non-negative amount with at most two decimals. A comma is
// read as the decimal separator.
func Price(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n >= 0
}

// Page returns the 1-based page number, defaulting to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Text trims s and checks it is non-empty and at most max runes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	n := len([]rune(s))
	return s, n > 0 && n <= max
}

// Password enforces a length window and mixed character classes.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// Shipping checks the checkout form and reports the first bad field.
func Shipping(fullName, contact, address string) (domain.ShippingInfo, error) {
	name, ok := Text(fullName, 120)
	if !ok {
		return domain.ShippingInfo{}, &domain.ValidationError{Field: "full_name", Reason: "required, up to 120 characters"}
	}
	c, ok := Text(contact, 120)
	if !ok {
		return domain.ShippingInfo{}, &domain.ValidationError{Field: "contact", Reason: "required, up to 120 characters"}
	}
	addr, ok := Text(address, 500)
	if !ok {
		return domain.ShippingInfo{}, &domain.ValidationError{Field: "address", Reason: "required, up to 500 characters"}
	}
	return domain.ShippingInfo{FullName: name, Contact: c, Address: addr}, nil
}

// Contact checks the contact form and reports the first bad field.
func Contact(name, email, message string) (domain.ContactMessage, error) {
	n, ok := Text(name, 100)
	if !ok {
		return domain.ContactMessage{}, &domain.ValidationError{Field: "name", Reason: "required, up to 100 characters"}
	}
	e, ok := Email(email)
	if !ok {
		return domain.ContactMessage{}, &domain.ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	m, ok := Text(message, 2000)
	if !ok {
		return domain.ContactMessage{}, &domain.ValidationError{Field: "message", Reason: "required, up to 2000 characters"}
	}
	return domain.ContactMessage{Name: n, Email: e, Message: m}, nil
}
