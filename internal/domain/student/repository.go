package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository хранит профили как отдельные документы с версией.
type Repository interface {
	// Create сохраняет новый профиль.
	// Возвращает ErrStudentAlreadyExists, если ID или email уже заняты.
	Create(ctx context.Context, s *Student) error

	// GetByID возвращает профиль с актуальной версией.
	// Возвращает ErrStudentNotFound, если профиля нет.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByEmail ищет профиль по email (без учёта регистра).
	GetByEmail(ctx context.Context, email string) (*Student, error)

	// List возвращает все профили.
	List(ctx context.Context) ([]*Student, error)

	// Save записывает профиль, только если версия в хранилище равна s.Version.
	// При успехе s.Version обновляется. При конфликте - ErrConcurrentModification.
	Save(ctx context.Context, s *Student) error

	// Count возвращает количество профилей.
	Count(ctx context.Context) (int, error)
}

// Locker сериализует изменения одного профиля между экземплярами сервиса.
type Locker interface {
	// Lock захватывает блокировку профиля. unlock освобождает её.
	Lock(ctx context.Context, studentID string) (unlock func(), err error)
}

// NoopLocker не блокирует ничего: достаточно compare-and-swap.
type NoopLocker struct{}

// Lock implements Locker.
func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Filter - предикат отбора профилей.
type Filter func(*Student) bool

// Select фильтрует профили.
func Select(all []*Student, keep Filter) []*Student {
	out := make([]*Student, 0, len(all))
	for _, s := range all {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// OnlyRole отбирает профили с ролью.
func OnlyRole(r Role) Filter {
	return func(s *Student) bool { return s.Role == r }
}

// OnlyMentors отбирает наставников.
func OnlyMentors() Filter {
	return func(s *Student) bool { return s.IsMentor }
}
