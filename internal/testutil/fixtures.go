package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: "testuser_" + suffix,
		email:    "testuser_" + suffix + "@example.com",
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user through the repository and returns it with the raw
// password.
func (b *UserBuilder) Build(t *testing.T, repos *repository.Repositories) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
	}
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BuildAndAuthenticate registers the user via the API and returns it with its
// bearer token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	resp := ts.Do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status code: %d: %s", resp.StatusCode, body)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:       userID,
		Username: authResp.User.Username,
		Email:    authResp.User.Email,
	}
	return user, authResp.Token
}

// Do sends a JSON request to an /api path. body may be nil.
func (ts *TestServer) Do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ProjectBuilder creates test projects with a builder pattern
type ProjectBuilder struct {
	name     string
	creator  *domain.User
	archived bool
}

func NewProjectBuilder(creator *domain.User) *ProjectBuilder {
	return &ProjectBuilder{
		name:    fmt.Sprintf("project_%s", uuid.New().String()[:8]),
		creator: creator,
	}
}

func (b *ProjectBuilder) WithName(name string) *ProjectBuilder {
	b.name = name
	return b
}

func (b *ProjectBuilder) Archived() *ProjectBuilder {
	b.archived = true
	return b
}

func (b *ProjectBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Project {
	t.Helper()

	project := &domain.Project{
		Name:      b.name,
		Archived:  b.archived,
		CreatedBy: b.creator.ID,
	}
	if err := repos.Project.Create(context.Background(), project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

// TicketBuilder creates test tickets with a builder pattern
type TicketBuilder struct {
	ticket *domain.Ticket
}

func NewTicketBuilder(project *domain.Project, creator *domain.User) *TicketBuilder {
	title := fmt.Sprintf("ticket_%s", uuid.New().String()[:8])
	return &TicketBuilder{
		ticket: domain.NewTicket(project.ID, title, domain.TicketTypeTask, creator.ID),
	}
}

func (b *TicketBuilder) WithTitle(title string) *TicketBuilder {
	b.ticket.Title = title
	return b
}

func (b *TicketBuilder) WithDescription(description string) *TicketBuilder {
	b.ticket.Description = &description
	return b
}

func (b *TicketBuilder) WithType(ticketType domain.TicketType) *TicketBuilder {
	b.ticket.TicketType = ticketType
	return b
}

func (b *TicketBuilder) WithStatus(status domain.TicketStatus) *TicketBuilder {
	b.ticket.Status = status
	return b
}

func (b *TicketBuilder) WithPriority(priority domain.Priority) *TicketBuilder {
	b.ticket.Priority = priority
	return b
}

func (b *TicketBuilder) WithAssignee(user *domain.User) *TicketBuilder {
	id := user.ID
	b.ticket.AssigneeID = &id
	return b
}

func (b *TicketBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Ticket {
	t.Helper()

	ticket := *b.ticket
	if err := repos.Ticket.Create(context.Background(), &ticket); err != nil {
		t.Fatalf("failed to create ticket: %v", err)
	}
	return &ticket
}

// CreateComment stores a comment by user on ticket.
func CreateComment(t *testing.T, repos *repository.Repositories, ticket *domain.Ticket, user *domain.User, content string) *domain.Comment {
	t.Helper()

	comment := &domain.Comment{TicketID: ticket.ID, UserID: user.ID, Content: content}
	if err := repos.Comment.Create(context.Background(), comment); err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}
	return comment
}

// CreateAttachment stores an attachment record without a backing file.
func CreateAttachment(t *testing.T, repos *repository.Repositories, ticket *domain.Ticket, user *domain.User, filename string) *domain.Attachment {
	t.Helper()

	attachment := &domain.Attachment{
		TicketID:    ticket.ID,
		Filename:    filename,
		FileSize:    42,
		MimeType:    "text/plain",
		StoragePath: uuid.NewString(),
		UploadedBy:  user.ID,
	}
	if err := repos.Attachment.Create(context.Background(), attachment); err != nil {
		t.Fatalf("failed to create attachment: %v", err)
	}
	return attachment
}
