package eventhandler

import (
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/messaging"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MILESTONE HANDLER
// Журнал достижений: новый уровень, значок, оборванная серия.
// ═══════════════════════════════════════════════════════════════════════════

// OnMilestoneHandler пишет достижения в журнал.
type OnMilestoneHandler struct {
	log *logger.Logger
}

// NewOnMilestoneHandler создаёт обработчик.
func NewOnMilestoneHandler(log *logger.Logger) *OnMilestoneHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnMilestoneHandler{log: log.Named("milestones")}
}

// Subscribe регистрирует обработчик на шине.
func (h *OnMilestoneHandler) Subscribe(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{shared.EventLevelUp, shared.EventBadgeUnlocked, shared.EventStreakBroken} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle пишет запись. Удалённые события уже записаны их экземпляром.
func (h *OnMilestoneHandler) Handle(event shared.Event) error {
	if messaging.IsRemote(event) {
		return nil
	}
	p := event.Payload()
	id := logger.StudentID(event.AggregateID())
	switch event.EventType() {
	case shared.EventLevelUp:
		h.log.Info("level up", id, logger.Any("level", p["new_level"]), logger.Any("level_name", p["level_name"]))
	case shared.EventBadgeUnlocked:
		h.log.Info("badge unlocked", id, logger.Any("badge_id", p["badge_id"]))
	case shared.EventStreakBroken:
		h.log.Info("streak broken", id, logger.Any("previous_streak", p["previous_streak"]))
	}
	return nil
}
