package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/repository"
	"github.com/dom/worknest/internal/storage"
	"github.com/google/uuid"
)

type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	ticketRepo     repository.TicketRepository
	store          storage.Store
	files          *fileReaper
	maxBytes       int64
}

func NewAttachmentService(
	attachmentRepo repository.AttachmentRepository,
	ticketRepo repository.TicketRepository,
	store storage.Store,
	files *fileReaper,
	maxBytes int64,
) *AttachmentService {
	if maxBytes <= 0 || maxBytes > domain.MaxAttachmentSize {
		maxBytes = domain.MaxAttachmentSize
	}
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		ticketRepo:     ticketRepo,
		store:          store,
		files:          files,
		maxBytes:       maxBytes,
	}
}

type UploadInput struct {
	TicketID   uuid.UUID
	UploadedBy uuid.UUID
	Filename   string
	Body       io.Reader
}

// Upload stores the file, then its record. The blob is removed again if the
// record cannot be written.
func (s *AttachmentService) Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	filename := cleanFilename(input.Filename)
	if err := domain.ValidateFilename(filename); err != nil {
		return nil, err
	}
	if err := s.requireTicket(ctx, input.TicketID); err != nil {
		return nil, err
	}

	obj, err := s.store.Save(ctx, input.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:    input.TicketID,
		Filename:    filename,
		FileSize:    obj.Size,
		MimeType:    obj.MimeType,
		StoragePath: obj.Key,
		UploadedBy:  input.UploadedBy,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		s.files.remove(obj.Key)
		return nil, err
	}

	logger.Info().
		Str("attachment_id", attachment.ID.String()).
		Str("ticket_id", attachment.TicketID.String()).
		Int64("size", attachment.FileSize).
		Str("mime_type", attachment.MimeType).
		Msg("attachment uploaded")
	return attachment, nil
}

func (s *AttachmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachment == nil {
		return nil, fmt.Errorf("%w: attachment %s", domain.ErrNotFound, id)
	}
	return attachment, nil
}

// Open returns the attachment with a reader over its bytes. The caller closes
// the reader.
func (s *AttachmentService) Open(ctx context.Context, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.store.Open(attachment.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return attachment, body, nil
}

func (s *AttachmentService) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Attachment, error) {
	if err := s.requireTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByTicket(ctx, ticketID)
}

func (s *AttachmentService) Rename(ctx context.Context, id uuid.UUID, filename string) (*domain.Attachment, error) {
	filename = cleanFilename(filename)
	return s.attachmentRepo.Update(ctx, id, domain.AttachmentUpdate{Filename: &filename})
}

// Delete removes the record first, then the file.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachmentRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.files.remove(attachment.StoragePath)
	return nil
}

func (s *AttachmentService) requireTicket(ctx context.Context, ticketID uuid.UUID) error {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return fmt.Errorf("%w: ticket %s", domain.ErrNotFound, ticketID)
	}
	return nil
}

// cleanFilename drops any client-side directory part.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base("/" + name)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
