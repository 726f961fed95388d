package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// CollectionRepository stores a whole collection as one JSON array.
type CollectionRepository[T school.Item] struct {
	store Store
	key   string
}

// NewCollectionRepository creates a repository for the named collection.
func NewCollectionRepository[T school.Item](store Store, collection school.Collection) *CollectionRepository[T] {
	return &CollectionRepository[T]{store: store, key: CollectionKey(collection)}
}

// Load implements school.Repository. A missing document is an empty
// collection at version 0.
func (r *CollectionRepository[T]) Load(ctx context.Context) ([]T, int64, error) {
	doc, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []T{}, 0, nil
		}
		return nil, 0, Persistence("LoadCollection", err)
	}

	var items []T
	if err := json.Unmarshal(doc.Data, &items); err != nil {
		return nil, 0, shared.WrapError("store", "LoadCollection", shared.ErrPersistence, "corrupt collection "+r.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, doc.Version, nil
}

// Store implements school.Repository.
func (r *CollectionRepository[T]) Store(ctx context.Context, items []T, expectedVersion int64) (int64, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return 0, shared.WrapError("store", "StoreCollection", shared.ErrPersistence, "encode collection", err)
	}
	version, err := r.store.Put(ctx, r.key, data, expectedVersion)
	if err != nil {
		return 0, Persistence("StoreCollection", err)
	}
	return version, nil
}

// NewCatalog wires every school collection to the same store.
func NewCatalog(store Store) *school.Catalog {
	return &school.Catalog{
		Quests:    NewCollectionRepository[school.QuestTemplate](store, school.CollectionQuests),
		Projects:  NewCollectionRepository[school.Project](store, school.CollectionProjects),
		Events:    NewCollectionRepository[school.Event](store, school.CollectionEvents),
		Quizzes:   NewCollectionRepository[school.Quiz](store, school.CollectionQuizzes),
		Resources: NewCollectionRepository[school.LearningResource](store, school.CollectionResources),
		Appeals:   NewCollectionRepository[school.Appeal](store, school.CollectionAppeals),
		Messages:  NewCollectionRepository[school.Message](store, school.CollectionMessages),
	}
}
