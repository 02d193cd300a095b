package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

// Store holds the phone number reminder calls and messages go to.
// Numbers are kept in E.164 form.
type Store struct {
	region string

	mu    sync.RWMutex
	phone string
}

// NewStore creates a store seeded with defaultPhone, which may be empty.
// region is the ISO country code used for numbers without a leading +.
func NewStore(defaultPhone, region string) (*Store, error) {
	s := &Store{region: strings.ToUpper(strings.TrimSpace(region))}
	if strings.TrimSpace(defaultPhone) == "" {
		return s, nil
	}
	phone, err := s.normalize(defaultPhone)
	if err != nil {
		return nil, fmt.Errorf("settings: default phone number: %w", err)
	}
	s.phone = phone
	return s, nil
}

// PhoneNumber returns the current number or "".
func (s *Store) PhoneNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phone
}

// SetPhoneNumber validates number and stores it in E.164 form.
func (s *Store) SetPhoneNumber(number string) (string, error) {
	phone, err := s.normalize(number)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone = phone
	return phone, nil
}

// ClearPhoneNumber forgets the number.
func (s *Store) ClearPhoneNumber() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone = ""
}

func (s *Store) normalize(number string) (string, error) {
	return E164(number, s.region)
}

// E164 parses number, using region for national numbers, and formats it
// as E.164. Invalid numbers yield a validation error.
func E164(number, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(number), strings.ToUpper(region))
	if err != nil {
		return "", model.NewValidationError("phone_number", "is not a phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", model.NewValidationError("phone_number", "is not a valid number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
