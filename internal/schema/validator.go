package schema

import (
	"errors"
	"strings"

	"github.com/jkang1643/Exbabel/internal/models"
)

var (
	ErrMissingText     = errors.New("transcript event missing text")
	ErrMissingLanguage = errors.New("session start missing language")
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateEvent rejects inbound events with a missing or blank text field.
func (v *Validator) ValidateEvent(ev models.TranscriptEvent) error {
	if strings.TrimSpace(ev.Text) == "" {
		return ErrMissingText
	}
	return nil
}

// ValidateStart rejects a session start whose languages are still blank
// after config defaults were applied.
func (v *Validator) ValidateStart(start models.SessionStart) error {
	if strings.TrimSpace(start.SourceLang) == "" || strings.TrimSpace(start.TargetLang) == "" {
		return ErrMissingLanguage
	}
	return nil
}
