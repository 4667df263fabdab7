package handlers

import (
	"context"
	"net/http"

	"github.com/upb/lingflow/middleware"
	"github.com/upb/lingflow/services/translation"
	"github.com/upb/lingflow/utils"
	"go.uber.org/zap"
)

// TextRequest is the body of the translate and correct endpoints
type TextRequest struct {
	Text       string `json:"text" validate:"notblank"`
	TargetLang string `json:"target_lang" validate:"required,langcode"`
}

// PromptRequest is the body of the prompt endpoint
type PromptRequest struct {
	Text       string `json:"text" validate:"notblank"`
	TargetLang string `json:"target_lang" validate:"required,langcode"`
	Type       string `json:"type,omitempty" validate:"omitempty,max=64"`
}

// ScreenshotRequest is the body of the OCR endpoint
type ScreenshotRequest struct {
	Image      string `json:"image" validate:"notblank"`
	TargetLang string `json:"target_lang" validate:"required,langcode"`
}

// TextResponse carries a single generated text
type TextResponse struct {
	Result string `json:"result"`
}

// TranslationService defines the operations exposed over the bridge
type TranslationService interface {
	Translate(ctx context.Context, text, lang string) (string, error)
	Correct(ctx context.Context, text, lang string) (string, error)
	GeneratePrompt(ctx context.Context, text, lang, typeTag string) (string, error)
	TranscribeScreenshot(ctx context.Context, image, lang string) (translation.TranscriptionResult, error)
}

// TranslationHandler handles the text and screenshot endpoints
type TranslationHandler struct {
	service TranslationService
	logger  *zap.Logger
}

// NewTranslationHandler creates a new TranslationHandler
func NewTranslationHandler(service TranslationService, logger *zap.Logger) *TranslationHandler {
	return &TranslationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleTranslate handles POST /api/v1/translate
func (h *TranslationHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, "translate", h.service.Translate)
}

// HandleCorrect handles POST /api/v1/correct
func (h *TranslationHandler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, "correct", h.service.Correct)
}

func (h *TranslationHandler) handleText(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	run func(ctx context.Context, text, lang string) (string, error),
) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := run(r.Context(), req.Text, req.TargetLang)
	if err != nil {
		h.logFailure(r, operation, err)
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeOK(w, TextResponse{Result: result})
}

// HandlePrompt handles POST /api/v1/prompt
func (h *TranslationHandler) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.GeneratePrompt(r.Context(), req.Text, req.TargetLang, req.Type)
	if err != nil {
		h.logFailure(r, "prompt", err)
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeOK(w, TextResponse{Result: result})
}

// HandleScreenshot handles POST /api/v1/ocr
func (h *TranslationHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	var req ScreenshotRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.TranscribeScreenshot(r.Context(), req.Image, req.TargetLang)
	if err != nil {
		h.logFailure(r, "transcribe", err)
		HandleServiceError(w, err, h.logger)
		return
	}

	h.writeOK(w, result)
}

func (h *TranslationHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *TranslationHandler) logFailure(r *http.Request, operation string, err error) {
	h.logger.Info("request failed",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("operation", operation),
		zap.Error(err))
}

func (h *TranslationHandler) writeOK(w http.ResponseWriter, data interface{}) {
	if err := utils.WriteOK(w, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
