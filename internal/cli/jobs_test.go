package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
)

func sampleRecords(n int) []jobstore.Record {
	records := make([]jobstore.Record, n)
	for i := range records {
		records[i] = jobstore.Record{
			JobID:      strings.Repeat("a", 4) + string(rune('0'+i%10)) + "-1234-5678",
			CameraName: "camera_0",
			Mode:       "RealTimeInteractive",
			CreatedAt:  time.Now().Add(-time.Duration(i) * time.Minute),
		}
	}
	return records
}

func TestJobListNavigation(t *testing.T) {
	m := NewJobListModel(sampleRecords(3))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(JobListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.Cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(JobListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.Cursor)
	}

	// Cursor does not move past the ends.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(JobListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d at top, want 0", m.Cursor)
	}
}

func TestJobListSelection(t *testing.T) {
	m := NewJobListModel(sampleRecords(3))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(JobListModel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(JobListModel)

	if cmd == nil {
		t.Error("enter should quit the program")
	}
	if m.Selected == nil || m.Selected.JobID != m.Jobs[1].JobID {
		t.Errorf("Selected = %+v, want job at cursor 1", m.Selected)
	}
}

func TestJobListViewRendersRows(t *testing.T) {
	m := NewJobListModel(sampleRecords(2))
	view := m.View()

	if !strings.Contains(view, "camera_0") {
		t.Error("view should list camera names")
	}
	if !strings.Contains(view, "[1/2]") {
		t.Errorf("view should show position indicator, got:\n%s", view)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
