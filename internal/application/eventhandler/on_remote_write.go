package eventhandler

import (
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/messaging"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON REMOTE WRITE HANDLER
// Другой экземпляр записал документ: локальная копия в LRU устарела.
// Собственные записи CachedStore обновляет сам, их не трогаем.
// ═══════════════════════════════════════════════════════════════════════════

// DocumentCache - локальный кэш документов (docstore.CachedStore).
type DocumentCache interface {
	Evict(key string)
	Purge()
}

// OnRemoteWriteHandler вытесняет документы, изменённые на другом экземпляре.
type OnRemoteWriteHandler struct {
	docs     DocumentCache
	isRemote func(shared.Event) bool
	log      *logger.Logger
}

// NewOnRemoteWriteHandler создаёт обработчик.
func NewOnRemoteWriteHandler(docs DocumentCache, log *logger.Logger) *OnRemoteWriteHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnRemoteWriteHandler{
		docs:     docs,
		isRemote: messaging.IsRemote,
		log:      log.Named("eventhandler.remote"),
	}
}

// Subscribe регистрирует обработчик на все события.
func (h *OnRemoteWriteHandler) Subscribe(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(h.Handle)
}

// Handle вытесняет затронутые ключи.
func (h *OnRemoteWriteHandler) Handle(event shared.Event) error {
	if h.docs == nil || !h.isRemote(event) {
		return nil
	}

	keys := h.keysOf(event)
	if keys == nil {
		h.docs.Purge()
		h.log.Debug("document cache purged", logger.String("event_type", string(event.EventType())))
		return nil
	}
	for _, k := range keys {
		h.docs.Evict(k)
		h.log.Debug("document evicted", logger.DocumentKey(k), logger.String("event_type", string(event.EventType())))
	}
	return nil
}

// keysOf возвращает ключи документов, изменённых событием. nil - неизвестно,
// нужно сбросить весь кэш.
func (h *OnRemoteWriteHandler) keysOf(event shared.Event) []string {
	payload := event.Payload()
	switch event.EventType() {
	case shared.EventCatalogChanged:
		c, _ := payload["collection"].(string)
		if c == "" {
			return nil
		}
		return []string{docstore.CollectionKey(school.Collection(c))}
	case shared.EventAppealResolved:
		keys := []string{docstore.CollectionKey(school.CollectionAppeals)}
		if id, _ := payload["student_id"].(string); id != "" {
			keys = append(keys, docstore.StudentKey(id))
		}
		return keys
	default:
		if event.AggregateID() == "" {
			return nil
		}
		return []string{docstore.StudentKey(event.AggregateID())}
	}
}
