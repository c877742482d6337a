package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvoice/internal/model"
)

type fakeLeadStore struct {
	leads []model.Lead
}

func (f *fakeLeadStore) Create(lead *model.Lead) error {
	f.leads = append(f.leads, *lead)
	return nil
}

func (f *fakeLeadStore) List() ([]model.Lead, error) {
	return f.leads, nil
}

func TestValidateContact(t *testing.T) {
	assert.ErrorIs(t, ValidateContact("12345"), ErrInvalidContact)
	assert.ErrorIs(t, ValidateContact(""), ErrInvalidContact)
	assert.ErrorIs(t, ValidateContact("abc-def"), ErrInvalidContact)
	assert.ErrorIs(t, ValidateContact(strings.Repeat("9", 16)), ErrInvalidContact)

	assert.NoError(t, ValidateContact("+91 95265 69313"))
	assert.NoError(t, ValidateContact("9526569313"))
	assert.NoError(t, ValidateContact(strings.Repeat("9", 15)))
}

func TestCapturePreservesRawContact(t *testing.T) {
	store := &fakeLeadStore{}
	svc := NewLeadService(store)

	lead, err := svc.Capture("+91 95265 69313", "The society was founded in 1926.")
	require.NoError(t, err)
	assert.Equal(t, "+91 95265 69313", lead.PhoneNumber)
	assert.Equal(t, "The society was founded in 1926.", lead.Context)
	require.Len(t, store.leads, 1)
}

func TestCaptureTruncatesContext(t *testing.T) {
	store := &fakeLeadStore{}
	svc := NewLeadService(store)

	long := strings.Repeat("x", 150)
	lead, err := svc.Capture("9526569313", long)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 100)+"...", lead.Context)
}

func TestCaptureRejectsInvalidWithoutRecording(t *testing.T) {
	store := &fakeLeadStore{}
	svc := NewLeadService(store)

	_, err := svc.Capture("12345", "ctx")
	assert.ErrorIs(t, err, ErrInvalidContact)
	assert.Empty(t, store.leads)
}
