package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"trialapi/internal/app"
	trialRecordController "trialapi/internal/controllers/trialRecord"
	"trialapi/internal/logger"
	. "trialapi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// uploadFields are the multipart file fields accepted for a document upload.
var uploadFields = []string{"file", "jsonFile"}

type TrialRecordHandler struct {
	Handler
	controller *trialRecordController.TrialRecordController
}

func NewTrialRecordHandler(app app.App, router fiber.Router) *TrialRecordHandler {
	log := logger.New("handlers").File("trialRecord_handler")
	return &TrialRecordHandler{
		controller: app.TrialRecordController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TrialRecordHandler) Register() {
	records := h.router.Group("/records")
	records.Get("/", h.listRecords)
	records.Post("/", h.createRecord)
	records.Post("/batch", h.createRecords)
	records.Get("/:id", h.getRecord)
	records.Put("/:id", h.replaceRecord)
	records.Delete("/:id", h.deleteRecord)
}

func (h *TrialRecordHandler) listRecords(c *fiber.Ctx) error {
	filter := TrialRecordFilter{
		ID:    c.Query("id"),
		Title: c.Query("title"),
	}

	if label := c.Query("status"); label != "" {
		status, err := ParseStatus(label)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON([]string{fmt.Sprintf(
				"value not allowed at '?status': %q is not one of %s",
				label,
				strings.Join(StatusLabels(), ", "),
			)})
		}
		filter.Status = &status
	}

	records, err := h.controller.List(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, "listRecords", err)
	}

	return c.JSON(records)
}

func (h *TrialRecordHandler) getRecord(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return h.respondError(c, "getRecord", err)
	}

	record, err := h.controller.Get(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, "getRecord", err)
	}

	return c.JSON(record)
}

func (h *TrialRecordHandler) createRecord(c *fiber.Ctx) error {
	raw, err := readDocument(c)
	if err != nil {
		return h.respondError(c, "createRecord", err)
	}

	record, err := h.controller.Ingest(c.UserContext(), raw)
	if err != nil {
		return h.respondError(c, "createRecord", err)
	}

	c.Location("/records/" + url.PathEscape(record.ID))
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *TrialRecordHandler) createRecords(c *fiber.Ctx) error {
	raw, err := readDocument(c)
	if err != nil {
		return h.respondError(c, "createRecords", err)
	}

	result, err := h.controller.IngestBatch(c.UserContext(), raw)
	if err != nil {
		return h.respondError(c, "createRecords", err)
	}

	return c.JSON(result)
}

func (h *TrialRecordHandler) replaceRecord(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return h.respondError(c, "replaceRecord", err)
	}

	raw, err := readDocument(c)
	if err != nil {
		return h.respondError(c, "replaceRecord", err)
	}

	record, err := h.controller.Replace(c.UserContext(), id, raw)
	if err != nil {
		return h.respondError(c, "replaceRecord", err)
	}

	return c.JSON(record)
}

func (h *TrialRecordHandler) deleteRecord(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return h.respondError(c, "deleteRecord", err)
	}

	if err := h.controller.Delete(c.UserContext(), id); err != nil {
		return h.respondError(c, "deleteRecord", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// respondError writes a 400 as the bare list of error strings and every other
// failure as a message envelope.
func (h *TrialRecordHandler) respondError(c *fiber.Ctx, function string, err error) error {
	status := StatusCode(err)
	messages := ErrorMessages(err)

	switch status {
	case fiber.StatusBadRequest:
		return c.Status(status).JSON(messages)
	case fiber.StatusInternalServerError:
		h.log.Function(function).Er("request failed", err, "path", c.Path())
	}

	return c.Status(status).JSON(fiber.Map{"message": "error", "error": messages[0]})
}

// recordID decodes the percent-encoded id path segment.
func recordID(c *fiber.Ctx) (string, error) {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid format at '{id}': %v", err))
	}
	return id, nil
}

// readDocument returns the uploaded file of a multipart request or the raw
// request body otherwise.
func readDocument(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	for _, field := range uploadFields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		return readUpload(header)
	}

	return nil, fmt.Errorf("%w: no file in form field %q", ErrMalformedInput, uploadFields[0])
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	return raw, nil
}
