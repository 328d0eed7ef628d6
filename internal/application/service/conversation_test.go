package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/storage"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

type sentMessage struct {
	UserID string
	Text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) Send(userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{UserID: userID, Text: text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type denyAll struct{}

func (denyAll) IsAllowed(string) bool { return false }

type allowSet map[string]bool

func (a allowSet) IsAllowed(userID string) bool { return a[userID] }

type testEngine struct {
	svc      *conversationService
	sender   *fakeSender
	sessions *SessionStore
	store    repository.ReminderStore
	now      time.Time
}

func newTestEngine(t *testing.T, auth Authorizer) *testEngine {
	t.Helper()

	store := storage.New(filepath.Join(t.TempDir(), "recordatorios.json"), logger.Discard())
	sender := &fakeSender{}
	sessions := NewSessionStore()
	svc := NewConversationService(store, sessions, auth, sender, time.UTC, logger.Discard()).(*conversationService)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &testEngine{svc: svc, sender: sender, sessions: sessions, store: store, now: now}
}

func (e *testEngine) handle(t *testing.T, userID string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if err := e.svc.HandleMessage(context.Background(), userID, text); err != nil {
			t.Fatalf("HandleMessage(%q) returned error: %v", text, err)
		}
	}
}

// input feeds one message without asserting on the result, for steps that
// are expected to return a validation error.
func (e *testEngine) input(userID, text string) {
	_ = e.svc.HandleMessage(context.Background(), userID, text)
}

func TestNewReminderFlow(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "1", "Pay rent", "2099-01-01 10:00", "60")

	if got := e.sender.last(); got != msgGuardado {
		t.Fatalf("expected confirmation %q, got %q", msgGuardado, got)
	}

	list, err := e.store.ListFor(context.Background(), "A")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one reminder, got %d", len(list))
	}
	r := list[0]
	if r.Nombre != "Pay rent" {
		t.Errorf("nombre = %q, want %q", r.Nombre, "Pay rent")
	}
	wantFecha := time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC)
	if !r.Fecha.Equal(wantFecha) {
		t.Errorf("fecha = %v, want %v", r.Fecha, wantFecha)
	}
	if r.Intervalo != 60 {
		t.Errorf("intervalo = %d, want 60", r.Intervalo)
	}
	if want := e.now.Add(60 * time.Minute); !r.Proxima.Equal(want) {
		t.Errorf("proxima = %v, want %v", r.Proxima, want)
	}

	// The flow returned to the menu: "2" lists the reminder.
	e.handle(t, "A", "2")
	if got := e.sender.last(); !strings.Contains(got, "Pay rent") {
		t.Fatalf("list reply %q does not contain the reminder name", got)
	}
}

func TestMenuResetsFromAnyStep(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	// Walk into the middle of the creation flow, then bail out.
	e.handle(t, "A", "1", "Dentist")
	e.handle(t, "A", "MENU")

	if got := e.sender.last(); got != msgMenu {
		t.Fatalf("expected menu text, got %q", got)
	}

	// The draft was discarded: finishing requires the full flow again.
	e.handle(t, "A", "4", "1")
	if got := e.sender.last(); !strings.Contains(got, "60") {
		t.Fatalf("expected calculator result after reset, got %q", got)
	}

	list, _ := e.store.ListFor(context.Background(), "A")
	if len(list) != 0 {
		t.Fatalf("abandoned draft must not be stored, got %d reminders", len(list))
	}
}

func TestUnauthorizedUser(t *testing.T) {
	e := newTestEngine(t, denyAll{})

	err := e.svc.HandleMessage(context.Background(), "B", "1")
	if !errors.Is(err, appErrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := e.sender.last(); got != msgNoAutorizado {
		t.Fatalf("expected rejection reply, got %q", got)
	}
	if e.sessions.Count() != 0 {
		t.Fatalf("unauthorized user must not create a session")
	}
	list, _ := e.store.ListFor(context.Background(), "B")
	if len(list) != 0 {
		t.Fatalf("unauthorized user must not mutate the store")
	}
}

func TestBlankTextDropped(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "", "   ", "\n\t")
	if e.sender.count() != 0 {
		t.Fatalf("blank input must produce no replies, got %d", e.sender.count())
	}
	if e.sessions.Count() != 0 {
		t.Fatalf("blank input must not create a session")
	}
}

func TestUnknownMenuTokenIsSilent(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "9", "hola")
	if e.sender.count() != 0 {
		t.Fatalf("unknown menu tokens must be silent, got %d replies", e.sender.count())
	}
}

func TestInvalidDateKeepsStep(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "1", "Taxes")
	e.input("A", "tomorrow at noon")
	if got := e.sender.last(); got != msgFechaInvalida {
		t.Fatalf("expected date error, got %q", got)
	}
	e.input("A", "2099-02-30 10:00")
	if got := e.sender.last(); got != msgFechaInvalida {
		t.Fatalf("impossible calendar points must be rejected, got %q", got)
	}

	// Still on the date step: a valid date moves on.
	e.handle(t, "A", "2099-02-28 10:00")
	if got := e.sender.last(); got != msgPedirIntervalo {
		t.Fatalf("expected interval prompt, got %q", got)
	}
}

func TestInvalidIntervalKeepsStep(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "1", "Taxes", "2099-02-28 10:00")
	for _, bad := range []string{"0", "-5", "abc", "1.5"} {
		e.input("A", bad)
		if got := e.sender.last(); got != msgIntervaloInvalido {
			t.Fatalf("input %q: expected interval error, got %q", bad, got)
		}
	}

	e.handle(t, "A", "15")
	if got := e.sender.last(); got != msgGuardado {
		t.Fatalf("expected confirmation after valid interval, got %q", got)
	}
}

func TestCalculatorConvertsHours(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "4", "2.5")
	if got := e.sender.last(); !strings.Contains(got, "150") {
		t.Fatalf("expected 150 minutes in reply, got %q", got)
	}

	// Back at the menu.
	e.handle(t, "A", "2")
	if got := e.sender.last(); got != msgSinRecordatorios {
		t.Fatalf("expected empty list reply from menu, got %q", got)
	}
}

func TestCalculatorRejectsInvalidAmounts(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "4")
	for _, bad := range []string{"-1", "muchas", "NaN"} {
		e.input("A", bad)
		if got := e.sender.last(); got != msgHorasInvalidas {
			t.Fatalf("input %q: expected amount error, got %q", bad, got)
		}
	}

	e.handle(t, "A", "0")
	if got := e.sender.last(); !strings.Contains(got, "0 horas = 0 minutos") {
		t.Fatalf("zero hours is valid, got %q", got)
	}
}

func TestModifyRename(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})
	seedReminder(t, e, "A", "Old name")

	e.handle(t, "A", "3", "1", "1", "New name")
	if got := e.sender.last(); got != msgNombreActualizado {
		t.Fatalf("expected rename confirmation, got %q", got)
	}

	list, _ := e.store.ListFor(context.Background(), "A")
	if len(list) != 1 || list[0].Nombre != "New name" {
		t.Fatalf("rename not applied: %+v", list)
	}
}

func TestModifyDelete(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})
	seedReminder(t, e, "A", "first")
	seedReminder(t, e, "A", "second")

	e.handle(t, "A", "3", "1", "4")
	if got := e.sender.last(); got != msgEliminado {
		t.Fatalf("expected delete confirmation, got %q", got)
	}

	list, _ := e.store.ListFor(context.Background(), "A")
	if len(list) != 1 || list[0].Nombre != "second" {
		t.Fatalf("expected only %q to remain, got %+v", "second", list)
	}
}

func TestModifyInvalidIndexKeepsStep(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})
	seedReminder(t, e, "A", "only one")

	e.handle(t, "A", "3")
	for _, bad := range []string{"0", "2", "x"} {
		e.input("A", bad)
		if got := e.sender.last(); got != msgOpcionInvalida {
			t.Fatalf("input %q: expected index error, got %q", bad, got)
		}
	}

	// Still choosing: a valid index opens the modify submenu.
	e.handle(t, "A", "1")
	if got := e.sender.last(); !strings.Contains(got, "Cambiar nombre") {
		t.Fatalf("expected modify submenu, got %q", got)
	}
}

func TestModifyExit(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})
	seedReminder(t, e, "A", "keep me")

	e.handle(t, "A", "3", "1", "5")
	if got := e.sender.last(); got != msgVolverMenu {
		t.Fatalf("expected exit reply, got %q", got)
	}

	list, _ := e.store.ListFor(context.Background(), "A")
	if len(list) != 1 {
		t.Fatalf("exit must not mutate the store, got %+v", list)
	}
}

func TestModifyWithEmptyListStaysAtMenu(t *testing.T) {
	e := newTestEngine(t, allowSet{"A": true})

	e.handle(t, "A", "3")
	if got := e.sender.last(); got != msgSinRecordatoriosModificar {
		t.Fatalf("expected empty-list reply, got %q", got)
	}

	// Still at the menu: "4" opens the calculator.
	e.handle(t, "A", "4")
	if got := e.sender.last(); got != msgPedirHoras {
		t.Fatalf("expected calculator prompt, got %q", got)
	}
}

func TestDeviceSuffixNormalization(t *testing.T) {
	e := newTestEngine(t, allowSet{"555": true})

	e.handle(t, "555:17@s.whatsapp.net", "1", "From phone", "2099-01-01 10:00", "30")
	e.handle(t, "555:3@s.whatsapp.net", "2")

	if got := e.sender.last(); !strings.Contains(got, "From phone") {
		t.Fatalf("both device addresses must reach the same list, got %q", got)
	}
	if e.sessions.Count() != 1 {
		t.Fatalf("expected a single session for both devices, got %d", e.sessions.Count())
	}
}

func seedReminder(t *testing.T, e *testEngine, userID, nombre string) {
	t.Helper()
	err := e.store.Append(context.Background(), userID, entity.Reminder{
		Nombre:    nombre,
		Fecha:     e.now.Add(24 * time.Hour),
		Intervalo: 30,
		Proxima:   e.now.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("seed reminder: %v", err)
	}
}
