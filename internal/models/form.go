package models

// The type of answer a question accepts.
type AnswerType string

const (
	FreeText     AnswerType = "free_text"
	Integer      AnswerType = "integer"
	Decimal2DP   AnswerType = "decimal_2dp"
	YesNo        AnswerType = "yes_no"
	SingleChoice AnswerType = "single_choice"
	MultiChoice  AnswerType = "multi_choice"
)

// AnswerTypes lists every supported answer type.
var AnswerTypes = []AnswerType{FreeText, Integer, Decimal2DP, YesNo, SingleChoice, MultiChoice}

func (t AnswerType) Valid() bool {
	for _, at := range AnswerTypes {
		if at == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type are answered by picking
// discrete options, and can therefore be the parent of a visibility condition.
func (t AnswerType) HasOptions() bool {
	return t == YesNo || t == SingleChoice || t == MultiChoice
}

// IsCustomChoice reports whether the author maintains the option list by hand.
func (t AnswerType) IsCustomChoice() bool {
	return t == SingleChoice || t == MultiChoice
}

// Ids of the two options every yes/no question owns. They are shared by all
// yes/no questions, so an option id only means something next to its question.
const (
	YesOptionID = "sim"
	NoOptionID  = "nao"
)

// The Form object.
type Form struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// The Question object.
type Question struct {
	ID            string     `json:"id"`
	FormID        string     `json:"form_id"`
	Title         string     `json:"title"`
	Code          string     `json:"code"`
	GuidanceText  string     `json:"guidance_text"`
	DisplayOrder  int        `json:"display_order"`
	Required      bool       `json:"required"`
	IsSubQuestion bool       `json:"is_sub_question"`
	AnswerType    AnswerType `json:"answer_type"`
}

// One selectable choice of a question.
type AnswerOption struct {
	ID           string `json:"id"`
	QuestionID   string `json:"question_id"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
	IsOpenEnded  bool   `json:"is_open_ended"`
}

// YesNoOptions returns the fixed option pair owned by the yes/no question questionID.
func YesNoOptions(questionID string) []AnswerOption {
	return []AnswerOption{
		{ID: YesOptionID, QuestionID: questionID, Label: "Sim", DisplayOrder: 1},
		{ID: NoOptionID, QuestionID: questionID, Label: "Não", DisplayOrder: 2},
	}
}

// Join row between a question and one of its options.
type QuestionOptionLink struct {
	ID         string `json:"id"`
	OptionID   string `json:"option_id"`
	QuestionID string `json:"question_id"`
}

// Shows a sub-question only when its parent's answer is or includes RequiredOptionID.
type VisibilityCondition struct {
	ParentQuestionID string `json:"parent_question_id"`
	RequiredOptionID string `json:"required_option_id"`
}

// Conditions are keyed by the dependent question id; a question has at most one.
type Conditions map[string]VisibilityCondition

// Clone returns a shallow copy safe to mutate.
func (c Conditions) Clone() Conditions {
	out := make(Conditions, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
