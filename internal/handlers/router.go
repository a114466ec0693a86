package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/internal/services"
)

type HandlerManager struct {
	draftHandler *DraftHandler
	formHandler  *FormHandler
	logger       logger.Logger
}

func NewHandlerManager(
	authoring *services.AuthoringService,
	render *services.RenderService,
	sessions *services.SessionService,
	validate *validator.Validate,
	log logger.Logger,
) *HandlerManager {
	return &HandlerManager{
		draftHandler: NewDraftHandler(authoring, validate, log),
		formHandler:  NewFormHandler(render, sessions, validate, log),
		logger:       log,
	}
}

// NewRouter builds the engine with recovery, request logging and CORS.
func (hm *HandlerManager) NewRouter(corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(hm.logger))

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	hm.SetupRoutes(router)
	return router
}

func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		drafts := v1.Group("/drafts")
		{
			drafts.POST("", hm.draftHandler.CreateDraft)
			drafts.GET("/:form_id", hm.draftHandler.GetDraft)
			drafts.DELETE("/:form_id", hm.draftHandler.DiscardDraft)
			drafts.POST("/:form_id/submit", hm.draftHandler.SubmitDraft)

			drafts.POST("/:form_id/questions", hm.draftHandler.AddQuestion)
			drafts.DELETE("/:form_id/questions/:question_id", hm.draftHandler.RemoveQuestion)
			drafts.PATCH("/:form_id/questions/:question_id", hm.draftHandler.UpdateQuestion)

			drafts.POST("/:form_id/questions/:question_id/options", hm.draftHandler.AddOption)
			drafts.DELETE("/:form_id/questions/:question_id/options/:option_id", hm.draftHandler.RemoveOption)
			drafts.PATCH("/:form_id/questions/:question_id/options/:option_id", hm.draftHandler.UpdateOption)

			drafts.PUT("/:form_id/conditions/:question_id", hm.draftHandler.SetCondition)
			drafts.DELETE("/:form_id/conditions/:question_id", hm.draftHandler.ClearCondition)
		}

		forms := v1.Group("/forms")
		{
			forms.GET("", hm.formHandler.ListForms)
			forms.GET("/:form_id", hm.formHandler.GetForm)
			forms.POST("/:form_id/sessions", hm.formHandler.OpenSession)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:session_id", hm.formHandler.GetSession)
			sessions.PUT("/:session_id/answers/:question_id", hm.formHandler.SetAnswer)
			sessions.POST("/:session_id/answers/:question_id/toggle", hm.formHandler.ToggleOption)
			sessions.POST("/:session_id/submit", hm.formHandler.SubmitSession)
		}
	}
}
