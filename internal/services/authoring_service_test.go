package services

import (
	"context"
	"errors"
	"testing"

	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/idgen"
	"github.com/paulexconde/formbuilder/internal/pkg/store"
	"github.com/paulexconde/formbuilder/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDraft() *Draft {
	return NewDraft(idgen.Sequence("id"))
}

// choiceQuestion adds a question of type t with one option per label.
func choiceQuestion(t *testing.T, d *Draft, at models.AnswerType, labels ...string) (models.Question, []models.AnswerOption) {
	t.Helper()

	q := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionAnswerType, at))

	for _, label := range labels {
		o, ok := d.AddOption(q.ID)
		require.True(t, ok)
		require.NoError(t, d.UpdateOptionField(q.ID, o.ID, OptionLabel, label))
	}

	q, _ = d.Question(q.ID)
	return q, d.Options(q.ID)
}

func TestAddQuestion_Defaults(t *testing.T) {
	d := newTestDraft()

	q1 := d.AddQuestion()
	q2 := d.AddQuestion()

	assert.Equal(t, models.FreeText, q1.AnswerType)
	assert.Equal(t, d.FormID(), q1.FormID)
	assert.Equal(t, 1, q1.DisplayOrder)
	assert.Equal(t, 2, q2.DisplayOrder)
	assert.False(t, q1.Required)
	assert.False(t, q1.IsSubQuestion)
	assert.Empty(t, d.Options(q1.ID))
}

func TestAddOption_CreatesLink(t *testing.T) {
	d := newTestDraft()
	q, opts := choiceQuestion(t, d, models.SingleChoice, "A", "B")

	require.Len(t, opts, 2)
	assert.Equal(t, 1, opts[0].DisplayOrder)
	assert.Equal(t, 2, opts[1].DisplayOrder)
	assert.False(t, opts[0].IsOpenEnded)

	links := d.Links()
	require.Len(t, links, 2)
	for i, l := range links {
		assert.Equal(t, q.ID, l.QuestionID)
		assert.Equal(t, opts[i].ID, l.OptionID)
	}
}

func TestAddOption_NonChoiceQuestionIsNoop(t *testing.T) {
	d := newTestDraft()
	q := d.AddQuestion()

	_, ok := d.AddOption(q.ID)
	assert.False(t, ok)

	_, ok = d.AddOption("missing")
	assert.False(t, ok)
	assert.Empty(t, d.Links())
}

func TestRemoveQuestion_Cascades(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.MultiChoice, "A", "B")
	child := d.AddQuestion()
	grandchild := d.AddQuestion()
	other, otherOpts := choiceQuestion(t, d, models.SingleChoice, "X")

	d.SetCondition(child.ID, parent.ID, opts[0].ID)
	d.SetCondition(grandchild.ID, child.ID, "whatever")
	d.SetCondition(other.ID, parent.ID, opts[1].ID)
	d.SetCondition(parent.ID, other.ID, otherOpts[0].ID)

	d.RemoveQuestion(parent.ID)

	_, ok := d.Question(parent.ID)
	assert.False(t, ok)
	assert.Empty(t, d.Options(parent.ID))

	conds := d.Conditions()
	assert.NotContains(t, conds, parent.ID, "own condition removed")
	assert.NotContains(t, conds, child.ID, "condition naming it as parent removed")
	assert.NotContains(t, conds, other.ID, "condition naming it as parent removed")
	assert.Contains(t, conds, grandchild.ID, "unrelated condition kept")

	for _, l := range d.Links() {
		assert.NotEqual(t, parent.ID, l.QuestionID)
	}
	assert.Len(t, d.Links(), 1)
}

func TestRemoveQuestion_UnknownIsNoop(t *testing.T) {
	d := newTestDraft()
	d.AddQuestion()

	d.RemoveQuestion("missing")
	assert.Len(t, d.Questions(), 1)
}

func TestRemoveOption_Cascades(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.SingleChoice, "A", "B")
	child1 := d.AddQuestion()
	child2 := d.AddQuestion()

	d.SetCondition(child1.ID, parent.ID, opts[0].ID)
	d.SetCondition(child2.ID, parent.ID, opts[1].ID)

	d.RemoveOption(parent.ID, opts[0].ID)

	remaining := d.Options(parent.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, opts[1].ID, remaining[0].ID)

	conds := d.Conditions()
	assert.NotContains(t, conds, child1.ID)
	assert.Contains(t, conds, child2.ID)

	links := d.Links()
	require.Len(t, links, 1)
	assert.Equal(t, opts[1].ID, links[0].OptionID)
}

func TestRemoveOption_YesNoPairIsFixed(t *testing.T) {
	d := newTestDraft()
	q := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionAnswerType, models.YesNo))

	d.RemoveOption(q.ID, models.YesOptionID)
	assert.Len(t, d.Options(q.ID), 2)
}

func TestUpdateQuestionField_YesNoReplacesOptions(t *testing.T) {
	tests := []struct {
		name  string
		from  models.AnswerType
		count int
	}{
		{name: "from single choice", from: models.SingleChoice, count: 3},
		{name: "from multi choice", from: models.MultiChoice, count: 1},
		{name: "from free text", from: models.FreeText},
		{name: "from yes/no", from: models.YesNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDraft()
			q := d.AddQuestion()
			require.NoError(t, d.UpdateQuestionField(q.ID, QuestionAnswerType, tt.from))
			for range tt.count {
				d.AddOption(q.ID)
			}

			require.NoError(t, d.UpdateQuestionField(q.ID, QuestionAnswerType, "yes_no"))

			opts := d.Options(q.ID)
			require.Len(t, opts, 2)
			assert.Equal(t, models.YesOptionID, opts[0].ID)
			assert.Equal(t, "Sim", opts[0].Label)
			assert.Equal(t, 1, opts[0].DisplayOrder)
			assert.Equal(t, models.NoOptionID, opts[1].ID)
			assert.Equal(t, "Não", opts[1].Label)
			assert.Equal(t, 2, opts[1].DisplayOrder)
			assert.False(t, opts[0].IsOpenEnded || opts[1].IsOpenEnded)

			links := d.Links()
			require.Len(t, links, 2)
			assert.ElementsMatch(t, []string{models.YesOptionID, models.NoOptionID},
				[]string{links[0].OptionID, links[1].OptionID})
		})
	}
}

func TestUpdateQuestionField_NonChoiceClearsOptionsAndConditions(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.MultiChoice, "A", "B")
	child := d.AddQuestion()
	d.SetCondition(child.ID, parent.ID, opts[0].ID)

	require.NoError(t, d.UpdateQuestionField(parent.ID, QuestionAnswerType, models.Integer))

	assert.Empty(t, d.Options(parent.ID))
	assert.Empty(t, d.Links())
	assert.NotContains(t, d.Conditions(), child.ID)
}

func TestUpdateQuestionField_SwitchingChoiceKindsKeepsOptions(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.MultiChoice, "A", "B")
	child := d.AddQuestion()
	d.SetCondition(child.ID, parent.ID, opts[1].ID)

	require.NoError(t, d.UpdateQuestionField(parent.ID, QuestionAnswerType, models.SingleChoice))

	assert.Equal(t, opts, d.Options(parent.ID))
	assert.Contains(t, d.Conditions(), child.ID)
}

func TestUpdateQuestionField_YesNoKeepsConditionsOnFixedOptions(t *testing.T) {
	d := newTestDraft()
	parent := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(parent.ID, QuestionAnswerType, models.YesNo))
	child := d.AddQuestion()
	d.SetCondition(child.ID, parent.ID, models.YesOptionID)

	require.NoError(t, d.UpdateQuestionField(parent.ID, QuestionAnswerType, models.YesNo))

	assert.Contains(t, d.Conditions(), child.ID)
}

func TestUpdateQuestionField_Values(t *testing.T) {
	d := newTestDraft()
	q := d.AddQuestion()

	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionTitle, "Age"))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionCode, "AGE"))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionGuidanceText, "in years"))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionDisplayOrder, float64(7)))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionRequired, true))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionIsSubQuestion, true))

	got, _ := d.Question(q.ID)
	assert.Equal(t, "Age", got.Title)
	assert.Equal(t, "AGE", got.Code)
	assert.Equal(t, "in years", got.GuidanceText)
	assert.Equal(t, 7, got.DisplayOrder)
	assert.True(t, got.Required)
	assert.True(t, got.IsSubQuestion)
}

func TestUpdateQuestionField_Errors(t *testing.T) {
	d := newTestDraft()
	q := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionTitle, "Age"))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionDisplayOrder, 4))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionRequired, true))
	require.NoError(t, d.UpdateQuestionField(q.ID, QuestionAnswerType, string(models.Integer)))

	tests := []struct {
		name  string
		field QuestionField
		value any
	}{
		{name: "unknown field", field: "colour", value: "red"},
		{name: "title not a string", field: QuestionTitle, value: 3},
		{name: "required not a bool", field: QuestionRequired, value: "yes"},
		{name: "fractional order", field: QuestionDisplayOrder, value: 1.5},
		{name: "order not a number", field: QuestionDisplayOrder, value: "4"},
		{name: "unknown answer type", field: QuestionAnswerType, value: "essay"},
		{name: "answer type not a string", field: QuestionAnswerType, value: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.UpdateQuestionField(q.ID, tt.field, tt.value)
			assert.True(t, fault.IsClientError(err), "got %v", err)
		})
	}

	assert.NoError(t, d.UpdateQuestionField("missing", "colour", "red"), "unknown question is a no-op")

	// rejected edits leave the question as it was
	got, ok := d.Question(q.ID)
	require.True(t, ok)
	assert.Equal(t, "Age", got.Title)
	assert.Equal(t, 4, got.DisplayOrder)
	assert.True(t, got.Required)
	assert.Equal(t, models.Integer, got.AnswerType)
}

func TestUpdateOptionField(t *testing.T) {
	d := newTestDraft()
	q, opts := choiceQuestion(t, d, models.SingleChoice, "A")

	require.NoError(t, d.UpdateOptionField(q.ID, opts[0].ID, OptionIsOpenEnded, true))
	require.NoError(t, d.UpdateOptionField(q.ID, opts[0].ID, OptionDisplayOrder, 5))
	assert.True(t, fault.IsClientError(d.UpdateOptionField(q.ID, opts[0].ID, "colour", "red")))
	assert.True(t, fault.IsClientError(d.UpdateOptionField(q.ID, opts[0].ID, OptionLabel, 7)))
	assert.True(t, fault.IsClientError(d.UpdateOptionField(q.ID, opts[0].ID, OptionDisplayOrder, "5")))
	assert.True(t, fault.IsClientError(d.UpdateOptionField(q.ID, opts[0].ID, OptionIsOpenEnded, "no")))
	assert.NoError(t, d.UpdateOptionField(q.ID, "missing", OptionLabel, "x"))

	got := d.Options(q.ID)[0]
	assert.Equal(t, "A", got.Label)
	assert.True(t, got.IsOpenEnded)
	assert.Equal(t, 5, got.DisplayOrder)
}

func TestSetAndClearCondition(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.SingleChoice, "A", "B")
	child := d.AddQuestion()

	d.SetCondition(child.ID, parent.ID, opts[0].ID)
	d.SetCondition(child.ID, parent.ID, opts[1].ID)
	assert.Equal(t, models.VisibilityCondition{ParentQuestionID: parent.ID, RequiredOptionID: opts[1].ID},
		d.Conditions()[child.ID])

	d.SetCondition("missing", parent.ID, opts[0].ID)
	assert.Len(t, d.Conditions(), 1)

	d.ClearCondition(child.ID)
	d.ClearCondition(child.ID)
	assert.Empty(t, d.Conditions())
}

func TestValidateCondition(t *testing.T) {
	d := newTestDraft()
	parent, opts := choiceQuestion(t, d, models.SingleChoice, "A")
	text := d.AddQuestion()
	child := d.AddQuestion()

	assert.NoError(t, d.ValidateCondition(child.ID, parent.ID, opts[0].ID))
	assert.True(t, fault.IsNotFound(d.ValidateCondition("missing", parent.ID, opts[0].ID)))
	assert.True(t, fault.IsNotFound(d.ValidateCondition(child.ID, "missing", opts[0].ID)))
	assert.True(t, fault.IsNotFound(d.ValidateCondition(child.ID, parent.ID, "missing")))
	assert.True(t, fault.IsClientError(d.ValidateCondition(child.ID, text.ID, "x")))
	assert.True(t, fault.IsClientError(d.ValidateCondition(parent.ID, parent.ID, opts[0].ID)))
}

func TestSubmit_WritesEverything(t *testing.T) {
	ctx := context.Background()
	cols := store.NewCollections(store.NewMemoryStore())

	d := newTestDraft()
	q1, opts1 := choiceQuestion(t, d, models.SingleChoice, "A", "B")
	q2 := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(q2.ID, QuestionAnswerType, models.YesNo))
	q3 := d.AddQuestion()
	require.NoError(t, d.UpdateQuestionField(q3.ID, QuestionIsSubQuestion, true))
	d.SetCondition(q3.ID, q1.ID, opts1[0].ID)

	formID, err := d.Submit(ctx, cols, FormMeta{Title: "F", Description: "desc"})
	require.NoError(t, err)
	assert.Equal(t, d.FormID(), formID)

	forms, err := cols.Forms(ctx)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, models.Form{ID: formID, Title: "F", Description: "desc", DisplayOrder: 1}, forms[0])

	questions, err := cols.Questions(ctx)
	require.NoError(t, err)
	assert.Len(t, questions, 3)

	options, err := cols.Options(ctx)
	require.NoError(t, err)
	require.Len(t, options, 4)
	assert.Equal(t, []string{opts1[0].ID, opts1[1].ID, models.YesOptionID, models.NoOptionID},
		[]string{options[0].ID, options[1].ID, options[2].ID, options[3].ID})

	links, err := cols.OptionLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 4)

	conds, err := cols.Conditions(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Conditions{q3.ID: {ParentQuestionID: q1.ID, RequiredOptionID: opts1[0].ID}}, conds)

	_, err = d.Submit(ctx, cols, FormMeta{Title: "F"})
	assert.True(t, errors.Is(err, fault.ErrAlreadySubmitted))

	forms, _ = cols.Forms(ctx)
	assert.Len(t, forms, 1, "second submit must not append")
}

// flakyStore fails the first save of one key.
type flakyStore struct {
	*store.MemoryStore
	failKey string
	failed  bool
}

func (f *flakyStore) Save(ctx context.Context, key string, value []byte) error {
	if key == f.failKey && !f.failed {
		f.failed = true
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, key, value)
}

func TestSubmit_RetryAfterFailedWriteDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	cols := store.NewCollections(&flakyStore{MemoryStore: store.NewMemoryStore(), failKey: "options"})

	d := newTestDraft()
	choiceQuestion(t, d, models.SingleChoice, "A", "B")

	_, err := d.Submit(ctx, cols, FormMeta{Title: "F"})
	require.Error(t, err)
	assert.False(t, d.Submitted())

	formID, err := d.Submit(ctx, cols, FormMeta{Title: "F"})
	require.NoError(t, err)
	assert.Equal(t, d.FormID(), formID)
	assert.True(t, d.Submitted())

	forms, err := cols.Forms(ctx)
	require.NoError(t, err)
	assert.Len(t, forms, 1)

	questions, err := cols.Questions(ctx)
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	options, err := cols.Options(ctx)
	require.NoError(t, err)
	assert.Len(t, options, 2)

	links, err := cols.OptionLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}
