package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/idgen"
	"github.com/paulexconde/formbuilder/internal/pkg/store"
	"github.com/paulexconde/formbuilder/pkg/fault"
)

// Editable question fields.
type QuestionField string

const (
	QuestionTitle         QuestionField = "title"
	QuestionCode          QuestionField = "code"
	QuestionGuidanceText  QuestionField = "guidance_text"
	QuestionDisplayOrder  QuestionField = "display_order"
	QuestionRequired      QuestionField = "required"
	QuestionIsSubQuestion QuestionField = "is_sub_question"
	QuestionAnswerType    QuestionField = "answer_type"
)

// Editable option fields.
type OptionField string

const (
	OptionLabel        OptionField = "label"
	OptionDisplayOrder OptionField = "display_order"
	OptionIsOpenEnded  OptionField = "is_open_ended"
)

// FormMeta is what the author supplies on submit.
type FormMeta struct {
	Title        string
	Description  string
	DisplayOrder int
}

// Draft is the mutable working set of one form before it is submitted.
//
// Mutations are total: an unknown question or option id is a no-op. Only a
// bad field name or a value of the wrong type is reported, as a client error.
type Draft struct {
	mu sync.Mutex

	formID     string
	ids        idgen.Generator
	questions  []models.Question
	options    map[string][]models.AnswerOption // keyed by question id
	links      []models.QuestionOptionLink
	conditions models.Conditions
	submitted  bool
	written    int // Submit writes already persisted
}

func NewDraft(ids idgen.Generator) *Draft {
	return &Draft{
		formID:     ids.NewID(),
		ids:        ids,
		options:    make(map[string][]models.AnswerOption),
		conditions: models.Conditions{},
	}
}

func (d *Draft) FormID() string {
	return d.formID
}

func (d *Draft) Submitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitted
}

// Questions returns the draft's questions in insertion order.
func (d *Draft) Questions() []models.Question {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.questions)
}

func (d *Draft) Options(questionID string) []models.AnswerOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.options[questionID])
}

// AllOptions flattens the per-question option lists in question order.
func (d *Draft) AllOptions() []models.AnswerOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allOptions()
}

func (d *Draft) allOptions() []models.AnswerOption {
	out := []models.AnswerOption{}
	for _, q := range d.questions {
		out = append(out, d.options[q.ID]...)
	}
	return out
}

func (d *Draft) Links() []models.QuestionOptionLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.links)
}

func (d *Draft) Conditions() models.Conditions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conditions.Clone()
}

func (d *Draft) question(id string) (int, bool) {
	for i, q := range d.questions {
		if q.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Question returns the draft question with id.
func (d *Draft) Question(id string) (models.Question, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.question(id)
	if !ok {
		return models.Question{}, false
	}
	return d.questions[i], true
}

// AddQuestion appends a free-text, optional, top-level question.
func (d *Draft) AddQuestion() models.Question {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := models.Question{
		ID:           d.ids.NewID(),
		FormID:       d.formID,
		DisplayOrder: len(d.questions) + 1,
		AnswerType:   models.FreeText,
	}

	d.questions = append(d.questions, q)
	d.options[q.ID] = []models.AnswerOption{}

	return q
}

// RemoveQuestion deletes the question with its options, its links, its own
// condition and every condition that names it as parent.
func (d *Draft) RemoveQuestion(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.question(id)
	if !ok {
		return
	}

	d.questions = slices.Delete(d.questions, i, i+1)
	delete(d.options, id)
	delete(d.conditions, id)

	for dep, cond := range d.conditions {
		if cond.ParentQuestionID == id {
			delete(d.conditions, dep)
		}
	}

	d.removeLinks(func(l models.QuestionOptionLink) bool { return l.QuestionID == id })
}

func (d *Draft) removeLinks(match func(models.QuestionOptionLink) bool) {
	d.links = slices.DeleteFunc(d.links, match)
}

// UpdateQuestionField sets one field. Changing the answer type rewrites the
// option list: yes/no gets the fixed pair, non-choice types get none, and
// conditions that pointed at options the question no longer has are dropped.
func (d *Draft) UpdateQuestionField(id string, field QuestionField, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.question(id)
	if !ok {
		return nil
	}
	q := &d.questions[i]

	var err error
	switch field {
	case QuestionTitle:
		err = assign(&q.Title)(asString(field, value))
	case QuestionCode:
		err = assign(&q.Code)(asString(field, value))
	case QuestionGuidanceText:
		err = assign(&q.GuidanceText)(asString(field, value))
	case QuestionDisplayOrder:
		err = assign(&q.DisplayOrder)(asInt(field, value))
	case QuestionRequired:
		err = assign(&q.Required)(asBool(field, value))
	case QuestionIsSubQuestion:
		err = assign(&q.IsSubQuestion)(asBool(field, value))
	case QuestionAnswerType:
		var t models.AnswerType
		if t, err = asAnswerType(value); err == nil {
			q.AnswerType = t
			d.resetOptionsFor(id, t)
		}
	default:
		return fault.NewClientError(fmt.Sprintf("unknown question field %q", field), nil)
	}

	return err
}

func (d *Draft) resetOptionsFor(questionID string, t models.AnswerType) {
	switch {
	case t == models.YesNo:
		d.options[questionID] = models.YesNoOptions(questionID)
		d.removeLinks(func(l models.QuestionOptionLink) bool { return l.QuestionID == questionID })
		for _, o := range d.options[questionID] {
			d.links = append(d.links, models.QuestionOptionLink{
				ID:         d.ids.NewID(),
				OptionID:   o.ID,
				QuestionID: questionID,
			})
		}
	case !t.IsCustomChoice():
		d.options[questionID] = []models.AnswerOption{}
		d.removeLinks(func(l models.QuestionOptionLink) bool { return l.QuestionID == questionID })
	}

	// fail closed: a child whose required option vanished would never show anyway
	for dep, cond := range d.conditions {
		if cond.ParentQuestionID != questionID {
			continue
		}
		if !slices.ContainsFunc(d.options[questionID], func(o models.AnswerOption) bool {
			return o.ID == cond.RequiredOptionID
		}) {
			delete(d.conditions, dep)
		}
	}
}

// AddOption appends an empty option to a single or multi choice question and
// links it. Other answer types own no editable options, so it is a no-op there.
func (d *Draft) AddOption(questionID string) (models.AnswerOption, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.question(questionID)
	if !ok || !d.questions[i].AnswerType.IsCustomChoice() {
		return models.AnswerOption{}, false
	}

	o := models.AnswerOption{
		ID:           d.ids.NewID(),
		QuestionID:   questionID,
		DisplayOrder: len(d.options[questionID]) + 1,
	}

	d.options[questionID] = append(d.options[questionID], o)
	d.links = append(d.links, models.QuestionOptionLink{
		ID:         d.ids.NewID(),
		OptionID:   o.ID,
		QuestionID: questionID,
	})

	return o, true
}

// RemoveOption deletes the option and its link, and drops every condition
// that requires it. The fixed yes/no pair cannot be removed.
func (d *Draft) RemoveOption(questionID, optionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.question(questionID)
	if !ok || d.questions[i].AnswerType == models.YesNo {
		return
	}

	opts := d.options[questionID]
	idx := slices.IndexFunc(opts, func(o models.AnswerOption) bool { return o.ID == optionID })
	if idx < 0 {
		return
	}

	d.options[questionID] = slices.Delete(slices.Clone(opts), idx, idx+1)

	for dep, cond := range d.conditions {
		if cond.RequiredOptionID == optionID {
			delete(d.conditions, dep)
		}
	}

	d.removeLinks(func(l models.QuestionOptionLink) bool { return l.OptionID == optionID })
}

func (d *Draft) UpdateOptionField(questionID, optionID string, field OptionField, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	opts := d.options[questionID]
	idx := slices.IndexFunc(opts, func(o models.AnswerOption) bool { return o.ID == optionID })
	if idx < 0 {
		return nil
	}
	o := &opts[idx]

	var err error
	switch field {
	case OptionLabel:
		err = assign(&o.Label)(asString(field, value))
	case OptionDisplayOrder:
		err = assign(&o.DisplayOrder)(asInt(field, value))
	case OptionIsOpenEnded:
		err = assign(&o.IsOpenEnded)(asBool(field, value))
	default:
		return fault.NewClientError(fmt.Sprintf("unknown option field %q", field), nil)
	}

	return err
}

// SetCondition upserts the single condition of dependentQuestionID. The
// parent is not checked here; see ValidateCondition.
func (d *Draft) SetCondition(dependentQuestionID, parentQuestionID, requiredOptionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.question(dependentQuestionID); !ok {
		return
	}

	d.conditions[dependentQuestionID] = models.VisibilityCondition{
		ParentQuestionID: parentQuestionID,
		RequiredOptionID: requiredOptionID,
	}
}

func (d *Draft) ClearCondition(dependentQuestionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.conditions, dependentQuestionID)
}

// ValidateCondition checks what an authoring surface must enforce before
// SetCondition: both questions exist and differ, the parent is answered with
// options, and the option belongs to it.
func (d *Draft) ValidateCondition(dependentQuestionID, parentQuestionID, requiredOptionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.question(dependentQuestionID); !ok {
		return fault.NotFound("question", dependentQuestionID)
	}

	if dependentQuestionID == parentQuestionID {
		return fault.NewClientError("a question cannot depend on itself", nil)
	}

	i, ok := d.question(parentQuestionID)
	if !ok {
		return fault.NotFound("question", parentQuestionID)
	}

	if !d.questions[i].AnswerType.HasOptions() {
		return fault.NewClientError(
			fmt.Sprintf("parent question answer type %q has no options", d.questions[i].AnswerType), nil)
	}

	if !slices.ContainsFunc(d.options[parentQuestionID], func(o models.AnswerOption) bool {
		return o.ID == requiredOptionID
	}) {
		return fault.NotFound("option", requiredOptionID)
	}

	return nil
}

// Submit appends the form, its questions, options, links and conditions to
// cols and returns the form id. A draft can only be submitted once. Writes
// are not transactional; when one fails, the next Submit continues from it
// instead of appending the earlier collections again.
func (d *Draft) Submit(ctx context.Context, cols *store.Collections, meta FormMeta) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submitted {
		return "", fault.NewClientError("submit", fault.ErrAlreadySubmitted)
	}

	if meta.DisplayOrder == 0 {
		meta.DisplayOrder = 1
	}

	form := models.Form{
		ID:           d.formID,
		Title:        meta.Title,
		Description:  meta.Description,
		DisplayOrder: meta.DisplayOrder,
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"append form", func() error { return cols.AppendForms(ctx, []models.Form{form}) }},
		{"append questions", func() error { return cols.AppendQuestions(ctx, d.questions) }},
		{"append options", func() error { return cols.AppendOptions(ctx, d.allOptions()) }},
		{"append option links", func() error { return cols.AppendOptionLinks(ctx, d.links) }},
		{"merge conditions", func() error { return cols.MergeConditions(ctx, d.conditions) }},
	}

	// a retry after a failed write resumes at that write
	for d.written < len(steps) {
		step := steps[d.written]
		if err := step.run(); err != nil {
			return "", fmt.Errorf("%s: %w", step.name, err)
		}
		d.written++
	}

	d.submitted = true

	return d.formID, nil
}

// assign writes a coerced value into dst only when coercion succeeded, so a
// rejected edit leaves the draft untouched.
func assign[T any](dst *T) func(T, error) error {
	return func(v T, err error) error {
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func asString[F ~string](field F, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fault.InvalidField(string(field), "a string", value)
	}
	return s, nil
}

func asBool[F ~string](field F, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fault.InvalidField(string(field), "a boolean", value)
	}
	return b, nil
}

// asInt accepts Go ints and whole JSON numbers.
func asInt[F ~string](field F, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return 0, fault.InvalidField(string(field), "a whole number", value)
}

func asAnswerType(value any) (models.AnswerType, error) {
	var t models.AnswerType
	switch v := value.(type) {
	case models.AnswerType:
		t = v
	case string:
		t = models.AnswerType(v)
	default:
		return "", fault.InvalidField(string(QuestionAnswerType), "a string", value)
	}

	if !t.Valid() {
		return "", fault.InvalidField(string(QuestionAnswerType), "a known answer type", value)
	}
	return t, nil
}
