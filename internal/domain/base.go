package domain

import (
	"time"
)

type BaseModel struct {
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PrivateString is a string that is hidden when serialized to JSON.
type PrivateString string

func (PrivateString) MarshalJSON() ([]byte, error) {
	return []byte(`""`), nil
}

func (PrivateString) String() string {
	return ""
}

const (
	DisabledReasonAdminEdit = "admin edit action"
	DisabledReasonBulkEdit  = "bulk edit action"
	DisabledReasonDeleted   = "deleted"
)
