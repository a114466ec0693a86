package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/paulexconde/formbuilder/internal/events"
	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/idgen"
	"github.com/paulexconde/formbuilder/internal/pkg/store"
	"github.com/paulexconde/formbuilder/pkg/fault"
)

// RenderService reads submitted forms back out of the store. It never
// mutates forms, questions, options or conditions.
type RenderService struct {
	cols      *store.Collections
	submitter events.Submitter
	ids       idgen.Generator
}

func NewRenderService(cols *store.Collections, submitter events.Submitter, ids idgen.Generator) *RenderService {
	return &RenderService{cols: cols, submitter: submitter, ids: ids}
}

// LoadForm returns fault.ErrNotFound when no form has formID.
func (s *RenderService) LoadForm(ctx context.Context, formID string) (*models.Form, error) {
	forms, err := s.cols.Forms(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range forms {
		if f.ID == formID {
			return &f, nil
		}
	}

	return nil, fault.NotFound("form", formID)
}

// ListForms returns every stored form in submission order.
func (s *RenderService) ListForms(ctx context.Context) ([]models.Form, error) {
	return s.cols.Forms(ctx)
}

// QuestionsFor returns the form's questions by ascending display order; ties
// keep their stored order.
func (s *RenderService) QuestionsFor(ctx context.Context, formID string) ([]models.Question, error) {
	all, err := s.cols.Questions(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.Question{}
	for _, q := range all {
		if q.FormID == formID {
			out = append(out, q)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Question) int { return a.DisplayOrder - b.DisplayOrder })
	return out, nil
}

// OptionsFor returns the question's options by ascending display order.
func (s *RenderService) OptionsFor(ctx context.Context, questionID string) ([]models.AnswerOption, error) {
	all, err := s.cols.Options(ctx)
	if err != nil {
		return nil, err
	}

	return optionsOf(all, questionID), nil
}

func optionsOf(all []models.AnswerOption, questionID string) []models.AnswerOption {
	out := []models.AnswerOption{}
	for _, o := range all {
		if o.QuestionID == questionID {
			out = append(out, o)
		}
	}

	slices.SortStableFunc(out, func(a, b models.AnswerOption) int { return a.DisplayOrder - b.DisplayOrder })
	return out
}

// RenderedQuestion is a question with its ordered options.
type RenderedQuestion struct {
	models.Question
	Options []models.AnswerOption `json:"options"`
}

// FormView is a whole form ready for a presentation layer.
type FormView struct {
	Form       models.Form        `json:"form"`
	Questions  []RenderedQuestion `json:"questions"`
	Conditions models.Conditions  `json:"conditions"`
}

// View loads the form, its ordered questions with options, and the
// conditions that apply to those questions.
func (s *RenderService) View(ctx context.Context, formID string) (*FormView, error) {
	form, err := s.LoadForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	questions, err := s.QuestionsFor(ctx, formID)
	if err != nil {
		return nil, err
	}

	options, err := s.cols.Options(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.cols.Conditions(ctx)
	if err != nil {
		return nil, err
	}

	view := &FormView{Form: *form, Questions: make([]RenderedQuestion, 0, len(questions)), Conditions: models.Conditions{}}
	for _, q := range questions {
		view.Questions = append(view.Questions, RenderedQuestion{Question: q, Options: optionsOf(options, q.ID)})
		if c, ok := all[q.ID]; ok {
			view.Conditions[q.ID] = c
		}
	}

	return view, nil
}

// NewSession starts answering formID.
func (s *RenderService) NewSession(ctx context.Context, formID string) (*Session, error) {
	view, err := s.View(ctx, formID)
	if err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(view.Questions))
	for _, q := range view.Questions {
		questions = append(questions, q.Question)
	}

	return newSession(s.ids.NewID(), view.Form.ID, questions, view.Conditions, s.submitter, s.ids), nil
}

// Session holds one respondent's in-progress answers for one form.
type Session struct {
	mu sync.Mutex

	id         string
	formID     string
	questions  []models.Question
	byID       map[string]models.Question
	conditions models.Conditions
	answers    models.Answers

	submitter events.Submitter
	ids       idgen.Generator
}

func newSession(id, formID string, questions []models.Question, conditions models.Conditions, submitter events.Submitter, ids idgen.Generator) *Session {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	return &Session{
		id:         id,
		formID:     formID,
		questions:  questions,
		byID:       byID,
		conditions: conditions,
		answers:    models.Answers{},
		submitter:  submitter,
		ids:        ids,
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) FormID() string { return s.formID }

// SetAnswer overwrites the answer of a non multi-choice question.
func (s *Session) SetAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.byID[questionID]
	if !ok {
		return fault.NewClientError("set answer", fault.NotFound("question", questionID))
	}

	if q.AnswerType == models.MultiChoice {
		return fault.NewClientError(fmt.Sprintf("question %q is multi choice; toggle options instead", questionID), nil)
	}

	s.answers[questionID] = models.Scalar(value)
	return nil
}

// ToggleMultiChoice adds optionID to, or removes it from, the question's
// selected set. Selecting twice keeps one entry.
func (s *Session) ToggleMultiChoice(questionID, optionID string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.byID[questionID]
	if !ok {
		return fault.NewClientError("toggle option", fault.NotFound("question", questionID))
	}

	if q.AnswerType != models.MultiChoice {
		return fault.NewClientError(fmt.Sprintf("question %q is not multi choice", questionID), nil)
	}

	current, ok := s.answers[questionID]
	if !ok {
		current = models.MultiSelect()
	}

	if checked {
		current = current.With(optionID)
	} else {
		current = current.Without(optionID)
	}

	// an empty set reads as unanswered
	if current.Empty() {
		delete(s.answers, questionID)
	} else {
		s.answers[questionID] = current
	}

	return nil
}

// IsVisible reports whether question is shown given the current answers.
func (s *Session) IsVisible(question models.Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return isVisible(question, s.byID, s.conditions, s.answers)
}

// VisibleQuestions returns the ordered questions that are currently shown.
func (s *Session) VisibleQuestions() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Question{}
	for _, q := range s.questions {
		if isVisible(q, s.byID, s.conditions, s.answers) {
			out = append(out, q)
		}
	}
	return out
}

func (s *Session) Answers() models.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.answers.Clone()
}

// SubmitAnswers hands the current answer map to the submitter and returns it.
func (s *Session) SubmitAnswers(ctx context.Context) (models.Answers, error) {
	answers := s.Answers()

	submission := events.Submission{
		ID:          s.ids.NewID(),
		FormID:      s.formID,
		SessionID:   s.id,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.submitter.Submit(ctx, submission); err != nil {
		return nil, fault.NewInternalError("submit answers", err)
	}

	return answers, nil
}
