package services

import (
	"errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/paulexconde/formbuilder/internal/models"
)

// visibilityEnv is what a condition program sees: the parent's answer and the
// option the dependent question waits for.
type visibilityEnv struct {
	Value    string
	Selected []string
	Required string
}

// Compiled once; visibility is re-derived on every keystroke.
var (
	selectedIncludesRequired = mustCompile(`Required in Selected`)
	valueEqualsRequired      = mustCompile(`Value == Required`)
)

func mustCompile(expression string) *vm.Program {
	program, err := expr.Compile(expression, expr.Env(visibilityEnv{}), expr.AsBool())
	if err != nil {
		panic(err)
	}
	return program
}

func evaluateProgram(program *vm.Program, env visibilityEnv) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, errors.New("expression did not return a boolean")
	}

	return result, nil
}

// isVisible decides whether question is shown given the answers so far.
//
// Top-level questions are always shown and any condition on them is ignored.
// A sub-question is shown only when it has a condition, its parent is
// answered, and the parent's answer equals (single value) or contains (set)
// the required option. Anything missing hides it.
func isVisible(question models.Question, parents map[string]models.Question, conditions models.Conditions, answers models.Answers) bool {
	if !question.IsSubQuestion {
		return true
	}

	cond, ok := conditions[question.ID]
	if !ok {
		return false
	}

	answer, ok := answers[cond.ParentQuestionID]
	if !ok || answer.Empty() {
		return false
	}

	parent, ok := parents[cond.ParentQuestionID]
	if !ok {
		return false
	}

	env := visibilityEnv{Required: cond.RequiredOptionID}
	program := valueEqualsRequired

	if models.AnswerKindFor(parent.AnswerType) == models.AnswerMultiSelect {
		env.Selected = answer.Selected()
		program = selectedIncludesRequired
	} else {
		env.Value = answer.Value()
	}

	visible, err := evaluateProgram(program, env)
	if err != nil {
		return false
	}
	return visible
}
