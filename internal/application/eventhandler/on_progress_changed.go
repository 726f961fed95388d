// Package eventhandler содержит обработчики доменных событий.
// Обработчики реагируют на уже сохранённые изменения: сбрасывают кэши
// и пишут журнал. Ошибка обработчика не откатывает изменение.
package eventhandler

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Сбрасывает снимок рейтинга, когда меняются очки или данные строки рейтинга.
// ═══════════════════════════════════════════════════════════════════════════

// invalidateTimeout ограничивает обращение к кэшу из обработчика.
const invalidateTimeout = 2 * time.Second

// leaderboardEvents - события, после которых снимок рейтинга устаревает.
var leaderboardEvents = []shared.EventType{
	shared.EventPointsChanged,
	shared.EventProfileUpdated,
	shared.EventStudentRegistered,
}

// OnProgressChangedHandler сбрасывает кэш рейтинга.
type OnProgressChangedHandler struct {
	cache leaderboard.SnapshotCache
	log   *logger.Logger
}

// NewOnProgressChangedHandler создаёт обработчик.
func NewOnProgressChangedHandler(cache leaderboard.SnapshotCache, log *logger.Logger) *OnProgressChangedHandler {
	if cache == nil {
		cache = leaderboard.NoopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OnProgressChangedHandler{cache: cache, log: log.Named("eventhandler.progress")}
}

// Subscribe регистрирует обработчик на шине.
func (h *OnProgressChangedHandler) Subscribe(bus shared.EventSubscriber) error {
	for _, t := range leaderboardEvents {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle сбрасывает снимок рейтинга.
func (h *OnProgressChangedHandler) Handle(event shared.Event) error {
	// Смена имени или bio не двигает очки, но строка рейтинга показывает имя.
	if event.EventType() == shared.EventProfileUpdated && !touchesName(event.Payload()) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Warn("leaderboard cache invalidation failed",
			logger.String("event_type", string(event.EventType())),
			logger.StudentID(event.AggregateID()),
			logger.Err(err),
		)
		return err
	}
	h.log.Debug("leaderboard cache invalidated",
		logger.String("event_type", string(event.EventType())),
		logger.StudentID(event.AggregateID()),
	)
	return nil
}

// touchesName проверяет поле fields события ProfileUpdated. Удалённые события
// приходят после JSON, поэтому там []any, а не []string.
func touchesName(payload map[string]any) bool {
	switch fields := payload["fields"].(type) {
	case []string:
		for _, f := range fields {
			if f == "name" {
				return true
			}
		}
	case []any:
		for _, f := range fields {
			if s, ok := f.(string); ok && s == "name" {
				return true
			}
		}
	default:
		// Неизвестный формат: лучше сбросить лишний раз.
		return true
	}
	return false
}
