package qualification

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/qualify/internal/common"
)

// AlertLevel controls how an alert is displayed.
type AlertLevel string

// Alert levels.
const (
	LevelInfo    AlertLevel = "info"
	LevelWarning AlertLevel = "warning"
	LevelError   AlertLevel = "error"
)

// maxAlerts bounds the alert queue; the oldest alerts are dropped first.
const maxAlerts = 50

// Alert is a user-visible notice raised by a session operation.
type Alert struct {
	At      time.Time   `json:"at"`
	ID      string      `json:"id"`
	Level   AlertLevel  `json:"level"`
	Kind    common.Kind `json:"kind,omitempty"`
	Message string      `json:"message"`
}

// Alerts returns the pending alerts, oldest first.
func (s *Session) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// DismissAlert removes an alert. It reports whether the alert existed.
func (s *Session) DismissAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// push requires s.mu.
func (s *Session) push(level AlertLevel, kind common.Kind, message string) {
	s.alerts = append(s.alerts, Alert{
		ID:      uuid.NewString(),
		At:      time.Now(),
		Level:   level,
		Kind:    kind,
		Message: message,
	})
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxAlerts:]
	}
}

func levelFor(kind common.Kind) AlertLevel {
	switch kind {
	case common.KindValidation, common.KindNoAnalysis, common.KindWriteRejected,
		common.KindPartialDocument, common.KindCanceled:
		return LevelWarning
	case common.KindNone:
		return LevelInfo
	default:
		return LevelError
	}
}

func alertMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}

	switch common.Classify(err) {
	case common.KindTransport:
		if errors.Is(err, common.ErrSubmitInFlight) {
			return "Já existe uma análise em andamento"
		}
		return "Falha na comunicação com o serviço de qualificação: " + err.Error()
	case common.KindMalformedResponse:
		return "Resposta inválida do serviço de qualificação"
	case common.KindChecklistAnalysis:
		return "O serviço não conseguiu analisar o checklist: " + err.Error()
	case common.KindCanceled:
		return "Operação cancelada"
	default:
		return err.Error()
	}
}
