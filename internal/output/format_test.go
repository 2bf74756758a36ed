package output_test

import (
	"bytes"
	"testing"
	"time"

	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/testutil"
)

var stamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestFormatTask_Golden(t *testing.T) {
	tasks := []service.Task{
		{ID: "1", Title: "Buy milk", Priority: service.PriorityLow},
		{ID: "2", Title: "Write report", Priority: service.PriorityHigh, Completed: true},
		{ID: "3", Title: "two\nlines", Priority: service.PriorityMedium},
		{ID: "4", Title: "  ", Priority: service.PriorityMedium},
	}

	var buf bytes.Buffer
	for i, task := range tasks {
		output.FormatTask(&buf, i+1, task)
	}
	output.FormatSummary(&buf, tasks)

	testutil.Golden(t, "list", buf.Bytes())
}

func TestFormatTaskDetail_Golden(t *testing.T) {
	task := service.Task{
		ID:          "a1b2",
		Title:       "Write report",
		Description: "quarterly numbers",
		Priority:    service.PriorityHigh,
		Completed:   true,
		CreatedAt:   service.NewTimestamp(stamp),
		UpdatedAt:   service.NewTimestamp(stamp.Add(time.Hour)),
	}

	var buf bytes.Buffer
	output.FormatTaskDetail(&buf, task)

	testutil.Golden(t, "show", buf.Bytes())
}

func TestFormatUser(t *testing.T) {
	tests := []struct {
		user service.User
		want string
	}{
		{service.User{Email: "a@b.com"}, "a@b.com\n"},
		{service.User{Email: "a@b.com", FullName: "Ada"}, "Ada <a@b.com>\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		output.FormatUser(&buf, tt.user)
		if buf.String() != tt.want {
			t.Errorf("expected %q, got %q", tt.want, buf.String())
		}
	}
}

func TestFormatSummary_Singular(t *testing.T) {
	var buf bytes.Buffer
	output.FormatSummary(&buf, []service.Task{{ID: "1"}})
	if buf.String() != "1 task, 0 completed\n" {
		t.Errorf("unexpected summary %q", buf.String())
	}
}
