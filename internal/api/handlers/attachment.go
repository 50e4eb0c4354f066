package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/service"
)

// multipartOverhead is the slack allowed above the file limit for part
// headers and boundaries.
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	maxBytes          int64
}

func NewAttachmentHandler(attachmentService *service.AttachmentService, maxBytes int64) *AttachmentHandler {
	if maxBytes <= 0 {
		maxBytes = domain.MaxAttachmentSize
	}
	return &AttachmentHandler{attachmentService: attachmentService, maxBytes: maxBytes}
}

type RenameAttachmentRequest struct {
	Filename string `json:"filename"`
}

func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	attachments, err := h.attachmentService.ListByTicket(r.Context(), ticketID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, attachments)
}

// Upload streams the multipart "file" part straight to storage.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	ticketID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		WriteError(w, r, domain.Invalid("body", "expected multipart/form-data"))
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			WriteError(w, r, domain.Invalid("file", "is required"))
			return
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				WriteError(w, r, err)
				return
			}
			WriteError(w, r, domain.Invalid("body", "malformed multipart body"))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		attachment, err := h.attachmentService.Upload(r.Context(), service.UploadInput{
			TicketID:   ticketID,
			UploadedBy: identity.UserID,
			Filename:   part.FileName(),
			Body:       part,
		})
		_ = part.Close()
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusCreated, attachment)
		return
	}
}

func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	attachment, err := h.attachmentService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, attachment)
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	attachment, body, err := h.attachmentService.Open(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	defer body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", attachment.MimeType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		logger.Warn().Err(err).Str("attachment_id", attachment.ID.String()).Msg("download interrupted")
	}
}

func (h *AttachmentHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req RenameAttachmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	attachment, err := h.attachmentService.Rename(r.Context(), id, req.Filename)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, attachment)
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.attachmentService.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
