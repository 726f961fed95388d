package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// StudentRepository implements student.Repository over a Store.
type StudentRepository struct {
	store Store
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(store Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// Create implements student.Repository. The e-mail is reserved first with a
// create-only write, so two registrations racing on the same address cannot
// both succeed.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	data, err := json.Marshal(s)
	if err != nil {
		return shared.WrapError("store", "CreateStudent", shared.ErrPersistence, "encode profile", err)
	}

	reserved := false
	if s.Email != "" {
		if err := r.reserveEmail(ctx, s); err != nil {
			return err
		}
		reserved = true
	}

	version, err := r.store.Put(ctx, StudentKey(s.ID), data, 0)
	if err != nil {
		if reserved {
			_ = r.store.Delete(ctx, EmailKey(s.Email))
		}
		if errors.Is(err, shared.ErrConcurrentModification) {
			return shared.ErrStudentAlreadyExists
		}
		return Persistence("CreateStudent", err)
	}
	s.Version = version
	return nil
}

type emailReservation struct {
	StudentID string `json:"studentId"`
}

func (r *StudentRepository) reserveEmail(ctx context.Context, s *student.Student) error {
	data, err := json.Marshal(emailReservation{StudentID: s.ID})
	if err != nil {
		return shared.WrapError("store", "ReserveEmail", shared.ErrPersistence, "encode reservation", err)
	}
	if _, err := r.store.Put(ctx, EmailKey(s.Email), data, 0); err != nil {
		if errors.Is(err, shared.ErrConcurrentModification) {
			return shared.ErrStudentAlreadyExists
		}
		return Persistence("ReserveEmail", err)
	}
	return nil
}

// GetByID implements student.Repository.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	doc, err := r.store.Get(ctx, StudentKey(id))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, Persistence("GetStudent", err)
	}
	return decodeStudent(doc)
}

// GetByEmail implements student.Repository.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

// List implements student.Repository. Profiles deleted between List and Get
// are skipped.
func (r *StudentRepository) List(ctx context.Context) ([]*student.Student, error) {
	keys, err := r.store.List(ctx, StudentPrefix)
	if err != nil {
		return nil, Persistence("ListStudents", err)
	}

	out := make([]*student.Student, 0, len(keys))
	for _, key := range keys {
		doc, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, Persistence("ListStudents", err)
		}
		s, err := decodeStudent(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save implements student.Repository.
func (r *StudentRepository) Save(ctx context.Context, s *student.Student) error {
	if s.Version == 0 {
		return shared.NewDomainError("store", "SaveStudent", shared.ErrInvalidState, "profile was never loaded")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return shared.WrapError("store", "SaveStudent", shared.ErrPersistence, "encode profile", err)
	}

	version, err := r.store.Put(ctx, StudentKey(s.ID), data, s.Version)
	if err != nil {
		return Persistence("SaveStudent", err)
	}
	s.Version = version
	return nil
}

// Count implements student.Repository.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	keys, err := r.store.List(ctx, StudentPrefix)
	if err != nil {
		return 0, Persistence("CountStudents", err)
	}
	return len(keys), nil
}

func decodeStudent(doc Document) (*student.Student, error) {
	var s student.Student
	if err := json.Unmarshal(doc.Data, &s); err != nil {
		return nil, shared.WrapError("store", "DecodeStudent", shared.ErrPersistence, "corrupt profile document "+doc.Key, err)
	}
	s.Normalize()
	s.Version = doc.Version
	if s.ID == "" {
		s.ID = StudentIDFromKey(doc.Key)
	}
	return &s, nil
}

var _ student.Repository = (*StudentRepository)(nil)
