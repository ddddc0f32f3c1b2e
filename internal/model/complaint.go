package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ComplaintStatus is the handling state of a complaint.
type ComplaintStatus string

const (
	ComplaintStatusPending  ComplaintStatus = "pending"
	ComplaintStatusInReview ComplaintStatus = "in_review"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

// Valid reports whether s is a known complaint status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInReview, ComplaintStatusResolved:
		return true
	}
	return false
}

// Complaint is an entry of the complaints book.
type Complaint struct {
	ID                     int64            `json:"id"`
	ConsumerName           string           `json:"consumer_name"`
	ConsumerLastname       string           `json:"consumer_lastname"`
	ConsumerDocumentType   string           `json:"consumer_document_type"`
	ConsumerDocumentNumber string           `json:"consumer_document_number"`
	ConsumerPhone          string           `json:"consumer_phone"`
	ConsumerEmail          string           `json:"consumer_email"`
	ConsumerAddress        string           `json:"consumer_address"`
	ConsumerIsMinor        bool             `json:"consumer_is_minor"`
	ItemType               string           `json:"item_type"`
	ItemAmount             *decimal.Decimal `json:"item_amount"`
	ItemDescription        string           `json:"item_description"`
	ComplaintType          string           `json:"complaint_type"`
	ComplaintDetails       string           `json:"complaint_details"`
	ConsumerRequest        string           `json:"consumer_request"`
	Status                 ComplaintStatus  `json:"status"`
	CreatedAt              time.Time        `json:"createdAt"`
}

// OptionalAmount accepts a JSON number, a numeric string, "" or null.
type OptionalAmount struct {
	Value *decimal.Decimal
}

func (a *OptionalAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		a.Value = nil
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	a.Value = &d
	return nil
}

// ComplaintRequest is the public complaint form.
type ComplaintRequest struct {
	ConsumerName           string         `json:"consumer_name"`
	ConsumerLastname       string         `json:"consumer_lastname"`
	ConsumerDocumentType   string         `json:"consumer_document_type"`
	ConsumerDocumentNumber string         `json:"consumer_document_number"`
	ConsumerPhone          string         `json:"consumer_phone"`
	ConsumerEmail          string         `json:"consumer_email"`
	ConsumerAddress        string         `json:"consumer_address"`
	ConsumerIsMinor        bool           `json:"consumer_is_minor"`
	ItemType               string         `json:"item_type"`
	ItemAmount             OptionalAmount `json:"item_amount"`
	ItemDescription        string         `json:"item_description"`
	ComplaintType          string         `json:"complaint_type"`
	ComplaintDetails       string         `json:"complaint_details"`
	ConsumerRequest        string         `json:"consumer_request"`
}
