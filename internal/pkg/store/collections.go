package store

import (
	"context"
	"sync"

	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/pkg/store"
)

// Collections is the persisted store of forms, questions, options,
// option-links and conditions. Appends go to the tail and are never
// deduplicated or validated.
//
// The mutex only serialises read-modify-write inside this process; two
// processes sharing a backend race and the last writer wins.
type Collections struct {
	kv store.KV
	mu sync.Mutex
}

func NewCollections(kv store.KV) *Collections {
	return &Collections{kv: kv}
}

func (c *Collections) KV() store.KV {
	return c.kv
}

func appendTo[T any](ctx context.Context, c *Collections, key string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var current []T
	if _, err := store.LoadJSON(ctx, c.kv, key, &current); err != nil {
		return err
	}

	return store.SaveJSON(ctx, c.kv, key, append(current, items...))
}

func readAll[T any](ctx context.Context, c *Collections, key string) ([]T, error) {
	var items []T
	if _, err := store.LoadJSON(ctx, c.kv, key, &items); err != nil {
		return nil, err
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}

func (c *Collections) AppendForms(ctx context.Context, forms []models.Form) error {
	return appendTo(ctx, c, store.KeyForms, forms)
}

func (c *Collections) AppendQuestions(ctx context.Context, questions []models.Question) error {
	return appendTo(ctx, c, store.KeyQuestions, questions)
}

func (c *Collections) AppendOptions(ctx context.Context, options []models.AnswerOption) error {
	return appendTo(ctx, c, store.KeyOptions, options)
}

func (c *Collections) AppendOptionLinks(ctx context.Context, links []models.QuestionOptionLink) error {
	return appendTo(ctx, c, store.KeyOptionLinks, links)
}

// MergeConditions shallow-merges entries into the stored map; new entries win.
func (c *Collections) MergeConditions(ctx context.Context, entries models.Conditions) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := models.Conditions{}
	if _, err := store.LoadJSON(ctx, c.kv, store.KeyConditions, &current); err != nil {
		return err
	}

	if current == nil {
		current = models.Conditions{}
	}

	for k, v := range entries {
		current[k] = v
	}

	return store.SaveJSON(ctx, c.kv, store.KeyConditions, current)
}

func (c *Collections) Forms(ctx context.Context) ([]models.Form, error) {
	return readAll[models.Form](ctx, c, store.KeyForms)
}

func (c *Collections) Questions(ctx context.Context) ([]models.Question, error) {
	return readAll[models.Question](ctx, c, store.KeyQuestions)
}

func (c *Collections) Options(ctx context.Context) ([]models.AnswerOption, error) {
	return readAll[models.AnswerOption](ctx, c, store.KeyOptions)
}

func (c *Collections) OptionLinks(ctx context.Context) ([]models.QuestionOptionLink, error) {
	return readAll[models.QuestionOptionLink](ctx, c, store.KeyOptionLinks)
}

func (c *Collections) Conditions(ctx context.Context) (models.Conditions, error) {
	conditions := models.Conditions{}
	if _, err := store.LoadJSON(ctx, c.kv, store.KeyConditions, &conditions); err != nil {
		return nil, err
	}

	if conditions == nil {
		conditions = models.Conditions{}
	}

	return conditions, nil
}
