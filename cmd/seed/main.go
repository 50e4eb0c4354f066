package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dom/worknest/internal/logger"
	"github.com/spf13/pflag"
)

type seedTicket struct {
	title       string
	description string
	ticketType  string
	priority    string
	status      string
	assignMe    bool
	comments    []string
}

var demoTickets = []seedTicket{
	{
		title:       "Login button does nothing on Safari",
		description: "Clicking the login button on Safari 17 has no effect. Console shows a CORS error.",
		ticketType:  "bug",
		priority:    "critical",
		assignMe:    true,
		comments:    []string{"Reproduced on macOS 14.", "Looks like the preflight is missing a header."},
	},
	{
		title:       "Add dark mode",
		description: "Respect the system color scheme and allow a manual toggle.",
		ticketType:  "feature",
		priority:    "low",
	},
	{
		title:       "Rotate database credentials",
		description: "Quarterly rotation for the production database user.",
		ticketType:  "task",
		priority:    "high",
		status:      "in_progress",
		assignMe:    true,
	},
	{
		title:       "Search results ignore descriptions",
		description: "Searching for words that only appear in a description returns nothing.",
		ticketType:  "bug",
		priority:    "medium",
		status:      "review",
		comments:    []string{"Fixed by indexing descriptions, please verify."},
	},
	{
		title:      "Write onboarding guide",
		ticketType: "task",
		priority:   "medium",
		status:     "done",
	},
}

func main() {
	apiURL := pflag.String("url", envOr("API_URL", "http://localhost:8080"), "worknest server URL")
	username := pflag.StringP("username", "u", "demo", "account to register or log in as")
	password := pflag.StringP("password", "p", "demo-password", "account password")
	projectName := pflag.String("project", "Demo project", "name of the project to create")
	pflag.Parse()

	logger.Init("info", "console")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, NewAPIClient(*apiURL), *username, *password, *projectName); err != nil {
		logger.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

func seed(ctx context.Context, client *APIClient, username, password, projectName string) error {
	user, err := client.Register(ctx, username, username+"@example.com", password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("authenticated")

	project, err := client.CreateProject(ctx, projectName, "Sample data for local development")
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	logger.Info().Str("project_id", project.ID).Msg("created project")

	for _, st := range demoTickets {
		body := map[string]any{
			"project_id":  project.ID,
			"title":       st.title,
			"ticket_type": st.ticketType,
			"priority":    st.priority,
		}
		if st.description != "" {
			body["description"] = st.description
		}
		if st.assignMe {
			body["assignee_id"] = "me"
		}

		ticket, err := client.CreateTicket(ctx, body)
		if err != nil {
			return fmt.Errorf("create ticket %q: %w", st.title, err)
		}

		if st.status != "" {
			if ticket, err = client.UpdateTicket(ctx, ticket.ID, map[string]any{"status": st.status}); err != nil {
				return fmt.Errorf("move ticket %q: %w", st.title, err)
			}
		}

		for _, content := range st.comments {
			if err := client.AddComment(ctx, ticket.ID, content); err != nil {
				return fmt.Errorf("comment on %q: %w", st.title, err)
			}
		}

		logger.Info().
			Str("ticket_id", ticket.ID).
			Str("status", ticket.Status).
			Str("priority", ticket.Priority).
			Msg("created ticket")
	}

	logger.Info().Int("tickets", len(demoTickets)).Msg("seed complete")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
