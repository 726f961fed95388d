package school

import (
	"context"
)

// Repository читает и переписывает коллекцию целиком.
// Отсутствующий документ читается как пустая коллекция.
type Repository[T Item] interface {
	// Load возвращает элементы и версию документа (0 - документа нет).
	Load(ctx context.Context) (items []T, version int64, err error)

	// Store записывает коллекцию, если версия не изменилась с Load.
	// При конфликте - ErrConcurrentModification.
	Store(ctx context.Context, items []T, expectedVersion int64) (int64, error)
}

// Catalog объединяет репозитории всех коллекций.
type Catalog struct {
	Quests    Repository[QuestTemplate]
	Projects  Repository[Project]
	Events    Repository[Event]
	Quizzes   Repository[Quiz]
	Resources Repository[LearningResource]
	Appeals   Repository[Appeal]
	Messages  Repository[Message]
}

// FindByID ищет элемент по ID.
func FindByID[T Item](items []T, id string) (T, int, bool) {
	for i, it := range items {
		if it.GetID() == id {
			return it, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// Upsert заменяет элемент с тем же ID или добавляет новый.
func Upsert[T Item](items []T, item T) []T {
	if _, i, ok := FindByID(items, item.GetID()); ok {
		out := append([]T(nil), items...)
		out[i] = item
		return out
	}
	return append(append([]T(nil), items...), item)
}

// Remove удаляет элемент по ID. ok=false, если элемента не было.
func Remove[T Item](items []T, id string) ([]T, bool) {
	_, i, ok := FindByID(items, id)
	if !ok {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}
