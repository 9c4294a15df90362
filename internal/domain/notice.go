package domain

import "fmt"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

const (
	NoticeMigrationPartial = "cart.migration.partial"
	NoticeMigrationBlocked = "cart.migration.blocked"
)

// Notice is a non-fatal message for the actor. It carries the raw numbers so the
// presentation layer can render its own wording.
type Notice struct {
	Level       NoticeLevel `json:"level"`
	Code        string      `json:"code"`
	ProductID   int64       `json:"product_id,omitempty"`
	ProductName string      `json:"product_name,omitempty"`
	Added       int         `json:"added,omitempty"`
	Dropped     int         `json:"dropped,omitempty"`
	Message     string      `json:"message"`
}

func PartialMigrationNotice(productID int64, name string, added, dropped int) Notice {
	return Notice{
		Level:       NoticeWarning,
		Code:        NoticeMigrationPartial,
		ProductID:   productID,
		ProductName: name,
		Added:       added,
		Dropped:     dropped,
		Message: fmt.Sprintf("Added %d unit(s) of %q. The remaining %d could not be moved because of the stock limit.",
			added, name, dropped),
	}
}

func BlockedMigrationNotice(productID int64, name string, dropped int) Notice {
	return Notice{
		Level:       NoticeWarning,
		Code:        NoticeMigrationBlocked,
		ProductID:   productID,
		ProductName: name,
		Dropped:     dropped,
		Message:     fmt.Sprintf("Could not move %q to your cart because of insufficient stock.", name),
	}
}
