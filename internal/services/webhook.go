package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/taskboard-dev/taskboard/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorOrange = 16753920 // #FFA500 - Overdue task

	Username = "Taskboard"
)

// SendOverdueTaskNotification posts an overdue-task message to the
// webhooks configured via DISCORD_WEBHOOK / SLACK_WEBHOOK. Both unset
// is fine; nothing is sent.
func SendOverdueTaskNotification(task models.Task) error {
	if discordWebhook := os.Getenv("DISCORD_WEBHOOK"); discordWebhook != "" {
		if err := sendDiscordTaskOverdue(discordWebhook, task); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if slackWebhook := os.Getenv("SLACK_WEBHOOK"); slackWebhook != "" {
		if err := sendSlackTaskOverdue(slackWebhook, task); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func sendDiscordTaskOverdue(webhookURL string, task models.Task) error {
	dueDate := "Unknown"
	if task.DueDate != nil {
		dueDate = task.DueDate.Format("2006-01-02")
	}

	assignee := "Unassigned"
	if task.Assignee != nil {
		assignee = task.Assignee.Fullname
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "⏰ **TASK OVERDUE**",
				Description: fmt.Sprintf("**%s** is past its due date.", task.Title),
				Color:       ColorOrange,
				Fields: []DiscordWebhookField{
					{Name: "📝 Task", Value: task.Title, Inline: true},
					{Name: "🚦 Status", Value: task.Status, Inline: true},
					{Name: "🔺 Priority", Value: task.Priority, Inline: true},
					{Name: "👤 Assignee", Value: assignee, Inline: true},
					{Name: "📅 Due Date", Value: dueDate, Inline: true},
				},
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Board: %s", task.Board.Title),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(webhookURL, payload)
}

func sendSlackTaskOverdue(webhookURL string, task models.Task) error {
	dueDate := "Unknown"
	if task.DueDate != nil {
		dueDate = task.DueDate.Format("2006-01-02")
	}

	assignee := "Unassigned"
	if task.Assignee != nil {
		assignee = task.Assignee.Fullname
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":alarm_clock:",
		Text:      ":alarm_clock: *TASK OVERDUE*",
		Attachments: []SlackAttachment{
			{
				Color: "warning",
				Title: fmt.Sprintf("Task '%s' is past its due date", task.Title),
				Text:  task.Description,
				Fields: []SlackField{
					{Title: "Task", Value: task.Title, Short: true},
					{Title: "Status", Value: task.Status, Short: true},
					{Title: "Priority", Value: task.Priority, Short: true},
					{Title: "Assignee", Value: assignee, Short: true},
					{Title: "Due Date", Value: dueDate, Short: false},
				},
				Footer:    fmt.Sprintf("Board: %s", task.Board.Title),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(webhookURL, payload)
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
