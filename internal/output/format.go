// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todo/internal/service"
)

// FormatTask formats a task line for the list command.
// Format: "{N:>4}  [{x| }] {TITLE} ({PRIORITY})\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %s (%s)\n", num, checkbox(task.Completed), normalizeTitle(task.Title), task.Priority)
}

// FormatTaskDetail prints every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task) {
	status := "active"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "id:          %s\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "status:      %s\n", status)
	fmt.Fprintf(w, "priority:    %s\n", task.Priority)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		fmt.Fprintf(w, "description: %s\n", desc)
	}
	fmt.Fprintf(w, "created:     %s\n", formatTime(task.CreatedAt.Time))
	fmt.Fprintf(w, "updated:     %s\n", formatTime(task.UpdatedAt.Time))
}

// FormatUser formats the logged-in user as "email" or "Full Name <email>".
func FormatUser(w io.Writer, user service.User) {
	if name := strings.TrimSpace(user.FullName); name != "" {
		fmt.Fprintf(w, "%s <%s>\n", name, user.Email)
		return
	}
	fmt.Fprintln(w, user.Email)
}

// FormatSummary prints "N tasks, M completed".
func FormatSummary(w io.Writer, tasks []service.Task) {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	noun := "tasks"
	if len(tasks) == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%d %s, %d completed\n", len(tasks), noun, done)
}

func checkbox(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
