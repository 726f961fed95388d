package command

import (
	"context"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG COMMANDS
// Staff maintenance of quest templates, projects and events.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogHandler handles create, update and delete for staff-managed collections.
type CatalogHandler struct {
	exec    *Executor
	catalog *school.Catalog
	ids     IDGenerator
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(exec *Executor, catalog *school.Catalog, ids IDGenerator) *CatalogHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &CatalogHandler{exec: exec, catalog: catalog, ids: ids}
}

// ──────────────────────────────────────────────────────────────────────────────
// Quest templates
// ──────────────────────────────────────────────────────────────────────────────

// CreateQuestTemplate adds a template with a fresh ID.
func (h *CatalogHandler) CreateQuestTemplate(ctx context.Context, t school.QuestTemplate) (*school.QuestTemplate, error) {
	t.ID = h.ids()
	return saveItem(ctx, h, h.catalog.Quests, school.CollectionQuests, t, t.Validate, nil, nil)
}

// UpdateQuestTemplate replaces an existing template.
func (h *CatalogHandler) UpdateQuestTemplate(ctx context.Context, t school.QuestTemplate) (*school.QuestTemplate, error) {
	return saveItem(ctx, h, h.catalog.Quests, school.CollectionQuests, t, t.Validate, shared.ErrTemplateNotFound, nil)
}

// DeleteQuestTemplate removes a template. Quests already assigned keep their copy.
func (h *CatalogHandler) DeleteQuestTemplate(ctx context.Context, id string) error {
	return deleteItem(ctx, h, h.catalog.Quests, school.CollectionQuests, id, shared.ErrTemplateNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Projects
// ──────────────────────────────────────────────────────────────────────────────

// CreateProject adds a project with no members.
func (h *CatalogHandler) CreateProject(ctx context.Context, p school.Project) (*school.Project, error) {
	p.ID = h.ids()
	p.Members = []string{}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Mentors == nil {
		p.Mentors = []string{}
	}
	return saveItem(ctx, h, h.catalog.Projects, school.CollectionProjects, p, p.Validate, nil, nil)
}

// UpdateProject replaces project details. Membership is kept.
func (h *CatalogHandler) UpdateProject(ctx context.Context, p school.Project) (*school.Project, error) {
	keepMembers := func(old, updated school.Project) school.Project {
		updated.Members = old.Members
		return updated
	}
	return saveItem(ctx, h, h.catalog.Projects, school.CollectionProjects, p, p.Validate, shared.ErrProjectNotFound, keepMembers)
}

// DeleteProject removes a project. Submissions already filed keep their title.
func (h *CatalogHandler) DeleteProject(ctx context.Context, id string) error {
	return deleteItem(ctx, h, h.catalog.Projects, school.CollectionProjects, id, shared.ErrProjectNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────────────────────────────────

// CreateEvent adds a school event.
func (h *CatalogHandler) CreateEvent(ctx context.Context, e school.Event) (*school.Event, error) {
	e.ID = h.ids()
	return saveItem(ctx, h, h.catalog.Events, school.CollectionEvents, e, e.Validate, nil, nil)
}

// UpdateEvent replaces an existing event.
func (h *CatalogHandler) UpdateEvent(ctx context.Context, e school.Event) (*school.Event, error) {
	return saveItem(ctx, h, h.catalog.Events, school.CollectionEvents, e, e.Validate, shared.ErrEventNotFound, nil)
}

// DeleteEvent removes an event.
func (h *CatalogHandler) DeleteEvent(ctx context.Context, id string) error {
	return deleteItem(ctx, h, h.catalog.Events, school.CollectionEvents, id, shared.ErrEventNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// saveItem upserts item. With notFound set the item must already exist; merge
// may carry fields over from the stored version.
func saveItem[T school.Item](
	ctx context.Context,
	h *CatalogHandler,
	repo school.Repository[T],
	collection school.Collection,
	item T,
	validate func() error,
	notFound error,
	merge func(old, updated T) T,
) (*T, error) {
	if item.GetID() == "" {
		return nil, shared.NewDomainError("command", "SaveCatalogItem", shared.ErrInvalidID, "id is required")
	}
	if err := validate(); err != nil {
		return nil, err
	}

	saved := item
	if _, err := UpdateCollection(ctx, h.exec.Retrier(), repo, func(items []T) ([]T, error) {
		old, _, exists := school.FindByID(items, item.GetID())
		if notFound != nil && !exists {
			return nil, notFound
		}
		saved = item
		if exists && merge != nil {
			saved = merge(old, item)
		}
		return school.Upsert(items, saved), nil
	}); err != nil {
		return nil, err
	}

	h.exec.Dispatch(shared.NewCatalogChangedEvent(string(collection), saved.GetID(), h.exec.Clock().Now()))
	return &saved, nil
}

func deleteItem[T school.Item](
	ctx context.Context,
	h *CatalogHandler,
	repo school.Repository[T],
	collection school.Collection,
	id string,
	notFound error,
) error {
	if _, err := UpdateCollection(ctx, h.exec.Retrier(), repo, func(items []T) ([]T, error) {
		out, ok := school.Remove(items, id)
		if !ok {
			return nil, notFound
		}
		return out, nil
	}); err != nil {
		return err
	}

	h.exec.Dispatch(shared.NewCatalogChangedEvent(string(collection), id, h.exec.Clock().Now()))
	return nil
}
