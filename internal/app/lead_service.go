package app

import (
	"errors"
	"fmt"
	"strings"

	"docvoice/internal/model"
)

const (
	leadContextLimit = 100

	minContactDigits = 10
	maxContactDigits = 15
)

var ErrInvalidContact = errors.New("contact number must contain 10 to 15 digits")

type leadStore interface {
	Create(lead *model.Lead) error
	List() ([]model.Lead, error)
}

// LeadService records captured contact identifiers together with a snapshot
// of the conversation context that triggered the capture.
type LeadService struct {
	leads leadStore
}

func NewLeadService(leads leadStore) *LeadService {
	return &LeadService{leads: leads}
}

// ValidateContact strips non-digit characters and checks the remaining digit
// count. The raw input is what gets stored, not the stripped form.
func ValidateContact(raw string) error {
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minContactDigits || digits > maxContactDigits {
		return ErrInvalidContact
	}
	return nil
}

// Capture validates and persists one lead. contextText is the most recent
// model message at capture time, truncated for storage.
func (s *LeadService) Capture(rawContact, contextText string) (*model.Lead, error) {
	rawContact = strings.TrimSpace(rawContact)
	if err := ValidateContact(rawContact); err != nil {
		return nil, err
	}
	lead := &model.Lead{
		PhoneNumber: rawContact,
		Context:     truncateContext(contextText),
	}
	if err := s.leads.Create(lead); err != nil {
		return nil, fmt.Errorf("persist lead failed: %w", err)
	}
	return lead, nil
}

func (s *LeadService) List() ([]model.Lead, error) {
	return s.leads.List()
}

func truncateContext(text string) string {
	runes := []rune(text)
	if len(runes) <= leadContextLimit {
		return text
	}
	return string(runes[:leadContextLimit]) + "..."
}
