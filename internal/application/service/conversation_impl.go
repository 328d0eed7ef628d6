package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/avilar/recordatorio-bot/internal/domain/constant"
	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

const dateLayout = "2006-01-02 15:04"

type conversationService struct {
	store    repository.ReminderStore
	sessions *SessionStore
	auth     Authorizer
	sender   Sender
	loc      *time.Location
	now      func() time.Time
	log      logger.Logger
}

// NewConversationService creates the conversation engine. loc is the
// timezone user-entered dates are interpreted in.
func NewConversationService(
	store repository.ReminderStore,
	sessions *SessionStore,
	auth Authorizer,
	sender Sender,
	loc *time.Location,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		store:    store,
		sessions: sessions,
		auth:     auth,
		sender:   sender,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
}

// HandleMessage processes one inbound event.
func (s *conversationService) HandleMessage(ctx context.Context, rawUserID, rawText string) error {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil
	}

	userID := entity.NormalizeUserID(rawUserID)
	if !s.auth.IsAllowed(userID) {
		s.log.Warn(fmt.Sprintf("Rejected message from unauthorized user %s", userID))
		s.send(userID, msgNoAutorizado)
		return fmt.Errorf("%w: %s", appErrors.ErrUnauthorized, userID)
	}

	s.log.Info(fmt.Sprintf("📨 %s: %q", userID, text))

	var err error
	s.sessions.Do(userID, func(sess *entity.Session) {
		err = s.dispatch(ctx, userID, sess, text)
	})
	return err
}

// dispatch runs one transition of the state machine. The caller holds the
// user's session lock.
func (s *conversationService) dispatch(ctx context.Context, userID string, sess *entity.Session, text string) error {
	// "menu" resets from any step, discarding the draft.
	if strings.EqualFold(text, "menu") {
		sess.Reset()
		s.send(userID, msgMenu)
		return nil
	}

	switch sess.Step {
	case constant.StepMenu:
		return s.stepMenu(ctx, userID, sess, text)
	case constant.StepNuevoNombre:
		sess.Draft.Nombre = text
		sess.Step = constant.StepNuevoFecha
		s.send(userID, msgPedirFecha)
		return nil
	case constant.StepNuevoFecha:
		return s.stepNuevoFecha(userID, sess, text)
	case constant.StepNuevoIntervalo:
		return s.stepNuevoIntervalo(ctx, userID, sess, text)
	case constant.StepModificarElegir:
		return s.stepModificarElegir(ctx, userID, sess, text)
	case constant.StepModificarMenu:
		return s.stepModificarMenu(ctx, userID, sess, text)
	case constant.StepModificarNombre:
		return s.applyModification(ctx, userID, sess, msgNombreActualizado, func(r *entity.Reminder) {
			r.Nombre = text
		})
	case constant.StepModificarFecha:
		fecha, err := s.parseFecha(text)
		if err != nil {
			s.send(userID, msgFechaInvalida)
			return err
		}
		return s.applyModification(ctx, userID, sess, msgFechaActualizada, func(r *entity.Reminder) {
			r.Fecha = fecha
		})
	case constant.StepModificarIntervalo:
		intervalo, err := parseIntervalo(text)
		if err != nil {
			s.send(userID, msgIntervaloInvalido)
			return err
		}
		return s.applyModification(ctx, userID, sess, msgIntervaloActualizado, func(r *entity.Reminder) {
			r.Intervalo = intervalo
		})
	case constant.StepCalculadoraHoras:
		return s.stepCalculadora(userID, sess, text)
	default:
		s.log.Warn(fmt.Sprintf("User %s has unknown step %q, resetting to menu", userID, sess.Step))
		sess.Reset()
		s.send(userID, msgMenu)
		return nil
	}
}

func (s *conversationService) stepMenu(ctx context.Context, userID string, sess *entity.Session, text string) error {
	switch text {
	case "1":
		sess.Step = constant.StepNuevoNombre
		sess.Draft = entity.Draft{}
		s.send(userID, msgPedirNombre)
	case "2":
		list, err := s.store.ListFor(ctx, userID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			s.send(userID, msgSinRecordatorios)
			return nil
		}
		var b strings.Builder
		b.WriteString("📌 Recordatorios:\n")
		for i, r := range list {
			b.WriteString(fmt.Sprintf("%d. %s 📅 %s\n", i+1, r.Nombre, r.Fecha.In(s.loc).Format(dateLayout)))
		}
		s.send(userID, strings.TrimSuffix(b.String(), "\n"))
	case "3":
		list, err := s.store.ListFor(ctx, userID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			s.send(userID, msgSinRecordatoriosModificar)
			return nil
		}
		sess.Step = constant.StepModificarElegir
		var b strings.Builder
		b.WriteString("✏️ Elige un recordatorio:\n")
		for i, r := range list {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Nombre))
		}
		s.send(userID, strings.TrimSuffix(b.String(), "\n"))
	case "4":
		sess.Step = constant.StepCalculadoraHoras
		s.send(userID, msgPedirHoras)
	}
	// Anything else at the menu falls through silently.
	return nil
}

func (s *conversationService) stepNuevoFecha(userID string, sess *entity.Session, text string) error {
	fecha, err := s.parseFecha(text)
	if err != nil {
		s.send(userID, msgFechaInvalida)
		return err
	}
	sess.Draft.Fecha = fecha
	sess.Step = constant.StepNuevoIntervalo
	s.send(userID, msgPedirIntervalo)
	return nil
}

func (s *conversationService) stepNuevoIntervalo(ctx context.Context, userID string, sess *entity.Session, text string) error {
	intervalo, err := parseIntervalo(text)
	if err != nil {
		s.send(userID, msgIntervaloInvalido)
		return err
	}

	reminder := entity.Reminder{
		Nombre:    sess.Draft.Nombre,
		Fecha:     sess.Draft.Fecha,
		Intervalo: intervalo,
		Proxima:   s.now().Add(time.Duration(intervalo) * time.Minute),
	}
	if err := s.store.Append(ctx, userID, reminder); err != nil {
		if !errors.Is(err, appErrors.ErrPersistSnapshot) {
			return err
		}
		// The reminder is live in memory; only the snapshot write failed.
		s.log.Error(fmt.Sprintf("Snapshot write failed after appending reminder for %s", userID), err)
	}

	sess.Reset()
	s.send(userID, msgGuardado)
	return nil
}

func (s *conversationService) stepModificarElegir(ctx context.Context, userID string, sess *entity.Session, text string) error {
	list, err := s.store.ListFor(ctx, userID)
	if err != nil {
		return err
	}

	idx, convErr := strconv.Atoi(text)
	if convErr != nil || idx < 1 || idx > len(list) {
		s.send(userID, msgOpcionInvalida)
		return fmt.Errorf("%w: %q", appErrors.ErrInvalidIndex, text)
	}

	sess.Draft.Index = idx - 1
	sess.Step = constant.StepModificarMenu
	s.send(userID, fmt.Sprintf("⚙️ Modificar %q:\n\n1️⃣ Cambiar nombre\n2️⃣ Cambiar fecha\n3️⃣ Cambiar intervalo\n4️⃣ Borrar\n5️⃣ Salir", list[sess.Draft.Index].Nombre))
	return nil
}

func (s *conversationService) stepModificarMenu(ctx context.Context, userID string, sess *entity.Session, text string) error {
	switch text {
	case "1":
		sess.Step = constant.StepModificarNombre
		s.send(userID, msgPedirNuevoNombre)
	case "2":
		sess.Step = constant.StepModificarFecha
		s.send(userID, msgPedirNuevaFecha)
	case "3":
		sess.Step = constant.StepModificarIntervalo
		s.send(userID, msgPedirNuevoIntervalo)
	case "4":
		idx := sess.Draft.Index
		sess.Reset()
		if err := s.store.RemoveAt(ctx, userID, idx); err != nil {
			if errors.Is(err, appErrors.ErrInvalidIndex) {
				s.send(userID, msgOpcionInvalida)
				return err
			}
			if !errors.Is(err, appErrors.ErrPersistSnapshot) {
				return err
			}
			s.log.Error(fmt.Sprintf("Snapshot write failed after removing reminder for %s", userID), err)
		}
		s.send(userID, msgEliminado)
	case "5":
		sess.Reset()
		s.send(userID, msgVolverMenu)
	}
	return nil
}

// applyModification updates the reminder the draft points at, returns the
// session to the menu and confirms. A stale index (the list shrank since it
// was chosen) yields an error reply and the menu.
func (s *conversationService) applyModification(ctx context.Context, userID string, sess *entity.Session, confirmation string, mutate func(*entity.Reminder)) error {
	idx := sess.Draft.Index
	sess.Reset()
	if err := s.store.UpdateAt(ctx, userID, idx, mutate); err != nil {
		if errors.Is(err, appErrors.ErrInvalidIndex) {
			s.send(userID, msgOpcionInvalida)
			return err
		}
		if !errors.Is(err, appErrors.ErrPersistSnapshot) {
			return err
		}
		s.log.Error(fmt.Sprintf("Snapshot write failed after updating reminder for %s", userID), err)
	}
	s.send(userID, confirmation)
	return nil
}

func (s *conversationService) stepCalculadora(userID string, sess *entity.Session, text string) error {
	horas, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(horas) || math.IsInf(horas, 0) || horas < 0 {
		s.send(userID, msgHorasInvalidas)
		return fmt.Errorf("%w: %q", appErrors.ErrInvalidAmount, text)
	}

	minutos := horas * 60
	sess.Reset()
	s.send(userID, fmt.Sprintf("⏳ %s horas = %s minutos.", formatNumber(horas), formatNumber(minutos)))
	return nil
}

// parseFecha interprets user input as a local calendar point.
func (s *conversationService) parseFecha(text string) (time.Time, error) {
	fecha, err := time.ParseInLocation(dateLayout, strings.TrimSpace(text), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", appErrors.ErrInvalidDate, text)
	}
	return fecha, nil
}

func parseIntervalo(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", appErrors.ErrInvalidInterval, text)
	}
	return n, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// send delivers a reply outside any store lock. Failures are logged and
// swallowed; a failed send never affects session or store state.
func (s *conversationService) send(userID, text string) {
	if err := s.sender.Send(userID, text); err != nil {
		s.log.Error(fmt.Sprintf("Failed to send message to %s", userID), err)
	}
}
