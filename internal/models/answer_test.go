package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerKindFor(t *testing.T) {
	assert.Equal(t, AnswerMultiSelect, AnswerKindFor(MultiChoice))
	for _, at := range []AnswerType{FreeText, Integer, Decimal2DP, YesNo, SingleChoice} {
		assert.Equal(t, AnswerScalar, AnswerKindFor(at), at)
	}
}

func TestAnswer_ZeroValue(t *testing.T) {
	var a Answer
	assert.Equal(t, AnswerScalar, a.Kind())
	assert.True(t, a.Empty())
	assert.False(t, a.IsMultiSelect())
}

func TestAnswer_SetSemantics(t *testing.T) {
	a := MultiSelect("a", "b", "a")
	assert.Equal(t, []string{"a", "b"}, a.Selected())

	a = a.With("b").With("c")
	assert.Equal(t, []string{"a", "b", "c"}, a.Selected())
	assert.True(t, a.Contains("c"))

	a = a.Without("a").Without("zzz")
	assert.Equal(t, []string{"b", "c"}, a.Selected())

	a = a.Without("b").Without("c")
	assert.True(t, a.Empty())
	assert.True(t, a.IsMultiSelect())
}

func TestAnswer_WithDoesNotAlias(t *testing.T) {
	base := MultiSelect("a")
	first := base.With("b")
	second := base.With("c")

	assert.Equal(t, []string{"a"}, base.Selected())
	assert.Equal(t, []string{"a", "b"}, first.Selected())
	assert.Equal(t, []string{"a", "c"}, second.Selected())

	sel := first.Selected()
	sel[0] = "x"
	assert.Equal(t, []string{"a", "b"}, first.Selected())
}

func TestAnswer_JSON(t *testing.T) {
	raw, err := json.Marshal(Answers{
		"q1": Scalar("hello"),
		"q2": MultiSelect("a", "b"),
		"q3": MultiSelect(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q1":"hello","q2":["a","b"],"q3":[]}`, string(raw))

	var back Answers
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "hello", back["q1"].Value())
	assert.Equal(t, []string{"a", "b"}, back["q2"].Selected())
	assert.True(t, back["q3"].IsMultiSelect())
	assert.True(t, back["q3"].Empty())

	var bad Answer
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestAnswers_Clone(t *testing.T) {
	a := Answers{"q1": Scalar("x")}
	c := a.Clone()
	c["q2"] = Scalar("y")

	assert.Len(t, a, 1)
	assert.Len(t, c, 2)
}

func TestAnswerType(t *testing.T) {
	assert.True(t, SingleChoice.Valid())
	assert.False(t, AnswerType("rating").Valid())

	assert.True(t, YesNo.HasOptions())
	assert.False(t, YesNo.IsCustomChoice())
	assert.True(t, MultiChoice.IsCustomChoice())
	assert.False(t, FreeText.HasOptions())
}

func TestYesNoOptions(t *testing.T) {
	opts := YesNoOptions("q9")
	require.Len(t, opts, 2)
	assert.Equal(t, AnswerOption{ID: "sim", QuestionID: "q9", Label: "Sim", DisplayOrder: 1}, opts[0])
	assert.Equal(t, AnswerOption{ID: "nao", QuestionID: "q9", Label: "Não", DisplayOrder: 2}, opts[1])
}
