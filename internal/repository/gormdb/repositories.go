package gormdb

import "github.com/dom/worknest/internal/repository"

func NewRepositories(pool *Pool) *repository.Repositories {
	return &repository.Repositories{
		User:       NewUserRepository(pool),
		Project:    NewProjectRepository(pool),
		Ticket:     NewTicketRepository(pool),
		Comment:    NewCommentRepository(pool),
		Attachment: NewAttachmentRepository(pool),
		Revocation: NewRevocationRepository(pool),
	}
}
