package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/internal/services"
)

type SubmitDraftRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// AddQuestionRequest is optional; an empty body adds a default question.
type AddQuestionRequest struct {
	Title      string `json:"title" validate:"max=500"`
	AnswerType string `json:"answer_type" validate:"omitempty,answer_type"`
}

type UpdateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

type SetConditionRequest struct {
	ParentQuestionID string `json:"parent_question_id" validate:"required"`
	RequiredOptionID string `json:"required_option_id" validate:"required"`
}

// DraftView is the authoring state sent back after every edit.
type DraftView struct {
	FormID     string                      `json:"form_id"`
	Questions  []services.RenderedQuestion `json:"questions"`
	Links      []models.QuestionOptionLink `json:"option_links"`
	Conditions models.Conditions           `json:"conditions"`
}

func newDraftView(d *services.Draft) DraftView {
	questions := d.Questions()
	view := DraftView{
		FormID:     d.FormID(),
		Questions:  make([]services.RenderedQuestion, 0, len(questions)),
		Links:      d.Links(),
		Conditions: d.Conditions(),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, services.RenderedQuestion{Question: q, Options: d.Options(q.ID)})
	}
	return view
}

type DraftHandler struct {
	BaseHandler
	authoring *services.AuthoringService
}

func NewDraftHandler(authoring *services.AuthoringService, validate *validator.Validate, log logger.Logger) *DraftHandler {
	return &DraftHandler{
		BaseHandler: NewBaseHandler(log, validate),
		authoring:   authoring,
	}
}

// draft resolves :form_id; on a miss the 404 is already written.
func (h *DraftHandler) draft(c *gin.Context) (*services.Draft, bool) {
	d, err := h.authoring.Draft(c.Param("form_id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return d, true
}

func (h *DraftHandler) CreateDraft(c *gin.Context) {
	d := h.authoring.NewDraft()
	c.JSON(http.StatusCreated, SuccessResponse{Message: "draft created", Data: newDraftView(d)})
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "draft", Data: newDraftView(d)})
}

func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	h.authoring.Discard(c.Param("form_id"))
	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) AddQuestion(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}

	var req AddQuestionRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}

	q, err := addQuestion(d, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "question added", Data: q})
}

// addQuestion adds a question with the requested fields. A rejected field
// removes the question again.
func addQuestion(d *services.Draft, req AddQuestionRequest) (models.Question, error) {
	q := d.AddQuestion()

	var err error
	if req.Title != "" {
		err = d.UpdateQuestionField(q.ID, services.QuestionTitle, req.Title)
	}
	if err == nil && req.AnswerType != "" {
		err = d.UpdateQuestionField(q.ID, services.QuestionAnswerType, req.AnswerType)
	}
	if err != nil {
		d.RemoveQuestion(q.ID)
		return models.Question{}, err
	}

	q, _ = d.Question(q.ID)
	return q, nil
}

func (h *DraftHandler) RemoveQuestion(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	d.RemoveQuestion(c.Param("question_id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "question removed", Data: newDraftView(d)})
}

func (h *DraftHandler) UpdateQuestion(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if !h.bind(c, &req) {
		return
	}

	if err := d.UpdateQuestionField(c.Param("question_id"), services.QuestionField(req.Field), req.Value); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "question updated", Data: newDraftView(d)})
}

func (h *DraftHandler) AddOption(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}

	o, added := d.AddOption(c.Param("question_id"))
	if !added {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "options can only be added to an existing single or multi choice question",
			Code:    "bad_request",
		})
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "option added", Data: o})
}

func (h *DraftHandler) RemoveOption(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	d.RemoveOption(c.Param("question_id"), c.Param("option_id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "option removed", Data: newDraftView(d)})
}

func (h *DraftHandler) UpdateOption(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if !h.bind(c, &req) {
		return
	}

	err := d.UpdateOptionField(c.Param("question_id"), c.Param("option_id"), services.OptionField(req.Field), req.Value)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "option updated", Data: newDraftView(d)})
}

func (h *DraftHandler) SetCondition(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}

	var req SetConditionRequest
	if !h.bind(c, &req) {
		return
	}

	dependent := c.Param("question_id")
	if err := d.ValidateCondition(dependent, req.ParentQuestionID, req.RequiredOptionID); err != nil {
		h.writeError(c, err)
		return
	}

	d.SetCondition(dependent, req.ParentQuestionID, req.RequiredOptionID)
	c.JSON(http.StatusOK, SuccessResponse{Message: "condition set", Data: newDraftView(d)})
}

func (h *DraftHandler) ClearCondition(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	d.ClearCondition(c.Param("question_id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "condition cleared", Data: newDraftView(d)})
}

func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	var req SubmitDraftRequest
	if !h.bind(c, &req) {
		return
	}

	formID, err := h.authoring.Submit(c.Request.Context(), c.Param("form_id"), services.FormMeta{
		Title:        req.Title,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "form created", Data: gin.H{"form_id": formID}})
}
