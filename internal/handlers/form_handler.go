package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/internal/pkg/paginator"
	"github.com/paulexconde/formbuilder/internal/services"
)

type SetAnswerRequest struct {
	Value string `json:"value"`
}

type ToggleOptionRequest struct {
	OptionID string `json:"option_id" validate:"required"`
	Checked  *bool  `json:"checked" validate:"required"`
}

// SessionView is what a renderer needs after each input event.
type SessionView struct {
	SessionID          string         `json:"session_id"`
	FormID             string         `json:"form_id"`
	VisibleQuestionIDs []string       `json:"visible_question_ids"`
	Answers            models.Answers `json:"answers"`
}

func newSessionView(s *services.Session) SessionView {
	visible := s.VisibleQuestions()
	ids := make([]string, 0, len(visible))
	for _, q := range visible {
		ids = append(ids, q.ID)
	}

	return SessionView{
		SessionID:          s.ID(),
		FormID:             s.FormID(),
		VisibleQuestionIDs: ids,
		Answers:            s.Answers(),
	}
}

type FormHandler struct {
	BaseHandler
	render   *services.RenderService
	sessions *services.SessionService
}

func NewFormHandler(render *services.RenderService, sessions *services.SessionService, validate *validator.Validate, log logger.Logger) *FormHandler {
	return &FormHandler{
		BaseHandler: NewBaseHandler(log, validate),
		render:      render,
		sessions:    sessions,
	}
}

func (h *FormHandler) ListForms(c *gin.Context) {
	forms, err := h.render.ListForms(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	c.JSON(http.StatusOK, SuccessResponse{Message: "forms", Data: paginator.Paginate(forms, page, limit)})
}

func (h *FormHandler) GetForm(c *gin.Context) {
	view, err := h.render.View(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "form", Data: view})
}

func (h *FormHandler) OpenSession(c *gin.Context) {
	sess, err := h.sessions.Open(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "session opened", Data: newSessionView(sess)})
}

func (h *FormHandler) session(c *gin.Context) (*services.Session, bool) {
	sess, err := h.sessions.Session(c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *FormHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "session", Data: newSessionView(sess)})
}

func (h *FormHandler) SetAnswer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req SetAnswerRequest
	if !h.bind(c, &req) {
		return
	}

	if err := sess.SetAnswer(c.Param("question_id"), req.Value); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "answer set", Data: newSessionView(sess)})
}

func (h *FormHandler) ToggleOption(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req ToggleOptionRequest
	if !h.bind(c, &req) {
		return
	}

	if err := sess.ToggleMultiChoice(c.Param("question_id"), req.OptionID, *req.Checked); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "option toggled", Data: newSessionView(sess)})
}

func (h *FormHandler) SubmitSession(c *gin.Context) {
	sess, err := h.sessions.Submit(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "answers submitted", Data: sess.Answers()})
}
