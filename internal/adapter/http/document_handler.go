package http

import (
	"net/http"
	"strconv"
	"time"

	"loan-service/internal/usecase/document"

	"github.com/labstack/echo/v4"
)

// maxDocumentSize caps a single multipart upload.
const maxDocumentSize = 20 << 20

type DocumentHandler struct{ uc *document.Usecase }

func NewDocumentHandler(uc *document.Usecase) *DocumentHandler { return &DocumentHandler{uc: uc} }

// Upload takes multipart fields file, documentType, uploadedBy and an
// optional expirationDate (YYYY-MM-DD).
func (h *DocumentHandler) Upload(c echo.Context) error {
	loanID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if fh.Size > maxDocumentSize {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
	}

	in := document.UploadInput{
		LoanID:       loanID,
		DocumentType: c.FormValue("documentType"),
		FileName:     fh.Filename,
		Size:         fh.Size,
		MimeType:     fh.Header.Get(echo.HeaderContentType),
	}
	if raw := c.FormValue("uploadedBy"); raw != "" {
		by, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "uploadedBy must be a number")
		}
		in.UploadedBy = &by
	}
	if raw := c.FormValue("expirationDate"); raw != "" {
		exp, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return badRequest(c, "expirationDate must be YYYY-MM-DD")
		}
		in.ExpirationDate = &exp
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "cannot read file")
	}
	defer f.Close()
	in.Body = f

	d, err := h.uc.Upload(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DocumentHandler) List(c echo.Context) error {
	loanID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	docs, err := h.uc.List(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Verify(c echo.Context) error {
	loanID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	documentID, ok := pathID(c, "documentId")
	if !ok {
		return badRequest(c, "invalid document id")
	}
	var req document.VerifyInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	d, err := h.uc.Verify(c.Request().Context(), loanID, documentID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
