package handlers

import (
	"bytes"
	"mime"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/ports"
)

const uploadField = "file"

type TranscribeHandler struct {
	service ports.TranscriptionService
	log     *zap.Logger
}

func NewTranscribeHandler(service ports.TranscriptionService, log *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		service: service,
		log:     log,
	}
}

// Transcribe handles POST /api/transcribe with a multipart "file" part.
func (h *TranscribeHandler) Transcribe(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, domain.ErrNoFileUploaded)
	}

	files := form.File[uploadField]
	if len(files) == 0 {
		// A part sent with filename="" is parsed as a plain form value.
		if _, ok := form.Value[uploadField]; ok && hasFilenameParam(c, uploadField) {
			return writeError(c, domain.ErrNoFileSelected)
		}
		return writeError(c, domain.ErrNoFileUploaded)
	}

	header := files[0]
	if header.Filename == "" {
		return writeError(c, domain.ErrNoFileSelected)
	}

	file, err := header.Open()
	if err != nil {
		h.log.Error("Failed to open uploaded file", zap.String("filename", header.Filename), zap.Error(err))
		return writeError(c, domain.NewTranscriptionError(err))
	}
	defer file.Close()

	text, err := h.service.Transcribe(c.UserContext(), header.Filename, file)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(domain.TranscriptionResponse{
		Success:       true,
		Transcription: text,
	})
}

// hasFilenameParam reports whether the named part declared a filename,
// even an empty one. Plain text fields do not.
func hasFilenameParam(c *fiber.Ctx, field string) bool {
	_, params, err := mime.ParseMediaType(string(c.Request().Header.ContentType()))
	if err != nil || params["boundary"] == "" {
		return false
	}

	r := multipart.NewReader(bytes.NewReader(c.Body()), params["boundary"])
	for {
		part, err := r.NextPart()
		if err != nil {
			return false
		}
		if part.FormName() != field {
			continue
		}
		_, disposition, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		if err != nil {
			continue
		}
		if _, ok := disposition["filename"]; ok {
			return true
		}
	}
}
