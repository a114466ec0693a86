package models

import (
	"encoding/json"
	"slices"
)

// AnswerKind tells whether an answer holds one value or a set of option ids.
type AnswerKind int

const (
	AnswerScalar AnswerKind = iota + 1
	AnswerMultiSelect
)

// AnswerKindFor resolves the answer shape from the question's type.
func AnswerKindFor(t AnswerType) AnswerKind {
	if t == MultiChoice {
		return AnswerMultiSelect
	}
	return AnswerScalar
}

// Answer is either a scalar (text, number, or single option id) or a set of
// option ids. The zero value is an unanswered scalar.
type Answer struct {
	kind     AnswerKind
	value    string
	selected []string
}

func Scalar(value string) Answer {
	return Answer{kind: AnswerScalar, value: value}
}

// MultiSelect builds a set answer; repeated ids collapse to one.
func MultiSelect(optionIDs ...string) Answer {
	a := Answer{kind: AnswerMultiSelect}
	for _, id := range optionIDs {
		a = a.With(id)
	}
	return a
}

func (a Answer) Kind() AnswerKind {
	if a.kind == 0 {
		return AnswerScalar
	}
	return a.kind
}

func (a Answer) IsMultiSelect() bool {
	return a.kind == AnswerMultiSelect
}

// Value is the scalar value; empty for a set answer.
func (a Answer) Value() string {
	return a.value
}

// Selected returns a copy of the selected option ids in selection order.
func (a Answer) Selected() []string {
	return slices.Clone(a.selected)
}

func (a Answer) Contains(optionID string) bool {
	return slices.Contains(a.selected, optionID)
}

// Empty reports an answer that counts as unanswered.
func (a Answer) Empty() bool {
	if a.IsMultiSelect() {
		return len(a.selected) == 0
	}
	return a.value == ""
}

// With returns a set answer that also contains optionID.
func (a Answer) With(optionID string) Answer {
	if a.Contains(optionID) {
		return a
	}
	return Answer{kind: AnswerMultiSelect, selected: append(slices.Clone(a.selected), optionID)}
}

// Without returns a set answer with every occurrence of optionID removed.
func (a Answer) Without(optionID string) Answer {
	out := make([]string, 0, len(a.selected))
	for _, id := range a.selected {
		if id != optionID {
			out = append(out, id)
		}
	}
	return Answer{kind: AnswerMultiSelect, selected: out}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsMultiSelect() {
		if a.selected == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.selected)
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON accepts a JSON string as a scalar and an array as a set.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*a = MultiSelect(ids...)
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*a = Scalar(value)
	return nil
}

// Answers maps question id to the respondent's input. A missing entry is unanswered.
type Answers map[string]Answer

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
