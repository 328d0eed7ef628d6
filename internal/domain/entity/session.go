package entity

import (
	"time"

	"github.com/avilar/recordatorio-bot/internal/domain/constant"
)

// Draft holds the working data of a multi-step flow: the fields of a
// reminder under construction, or the index of the reminder being edited.
type Draft struct {
	Nombre    string
	Fecha     time.Time
	Intervalo int
	Index     int
}

// Session is the ephemeral per-user conversation state. It lives only in
// memory; after a restart the user simply starts again at the menu.
type Session struct {
	Step  constant.Step
	Draft Draft
}

// NewSession returns a session resting at the menu.
func NewSession() *Session {
	return &Session{Step: constant.StepMenu}
}

// Reset returns the session to the menu and discards any draft.
func (s *Session) Reset() {
	s.Step = constant.StepMenu
	s.Draft = Draft{}
}
