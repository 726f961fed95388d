package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// StudentLocker implements student.Locker with SET NX leases. It narrows
// the window for CAS conflicts; correctness still comes from the version
// check on save.
type StudentLocker struct {
	kv       KV
	lease    time.Duration
	pollWait time.Duration
	log      *logger.Logger
}

// NewStudentLocker creates a locker.
func NewStudentLocker(kv KV, log *logger.Logger) *StudentLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &StudentLocker{
		kv:       kv,
		lease:    TTLStudentLock,
		pollWait: 25 * time.Millisecond,
		log:      log.Named("redis.lock"),
	}
}

// Lock implements student.Locker. It waits until the lease is free or ctx ends.
func (l *StudentLocker) Lock(ctx context.Context, studentID string) (func(), error) {
	key := prefixLock + studentID
	token := uuid.NewString()

	for {
		ok, err := l.kv.SetNX(ctx, key, token, l.lease)
		if err != nil {
			return nil, shared.WrapError("store", "LockStudent", shared.ErrServiceUnavailable, "lock backend failure", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.pollWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, shared.WrapError("store", "LockStudent", shared.ErrConcurrentModification, "profile is locked by another writer", ctx.Err())
		case <-timer.C:
		}
	}

	return func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := l.kv.CompareAndDelete(ctx, key, token); err != nil {
			l.log.Warn("failed to release lock", logger.StudentID(studentID), logger.Err(err))
		}
	}, nil
}

var _ student.Locker = (*StudentLocker)(nil)
