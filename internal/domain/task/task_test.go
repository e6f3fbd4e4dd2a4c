package task

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestNewFromCreateRequest_Defaults(t *testing.T) {
	got, err := NewFromCreateRequest("owner-1", CreateTaskRequest{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if got.Title != "Buy milk" {
		t.Fatalf("title not trimmed: %q", got.Title)
	}
	if got.Status != StatusPending || got.Priority != PriorityMedium {
		t.Fatalf("unexpected defaults: %s/%s", got.Status, got.Priority)
	}
	if got.OwnerID != "owner-1" || got.ID == "" {
		t.Fatalf("owner or id missing: %+v", got)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("tags should be an empty slice, got %#v", got.Tags)
	}
	if got.ProjectID != nil {
		t.Fatalf("expected no project")
	}
}

func TestNewFromCreateRequest_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  CreateTaskRequest
		want error
	}{
		{name: "blank title", req: CreateTaskRequest{Title: "   "}, want: ErrInvalidTitle},
		{name: "bad status", req: CreateTaskRequest{Title: "x", Status: "archived"}, want: ErrInvalidStatus},
		{name: "bad priority", req: CreateTaskRequest{Title: "x", Priority: "urgent"}, want: ErrInvalidPriority},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromCreateRequest("o", tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewFromCreateRequest_BlankProjectIsNoProject(t *testing.T) {
	got, err := NewFromCreateRequest("o", CreateTaskRequest{Title: "x", Project: strPtr("  ")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ProjectID != nil {
		t.Fatalf("expected nil project, got %q", *got.ProjectID)
	}
}

func TestUpdateTaskRequest_Apply(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	original := Task{
		Title:       "draft",
		Description: "keep",
		Status:      StatusPending,
		Priority:    PriorityLow,
		ProjectID:   strPtr("p-1"),
		Project:     &ProjectRef{ID: "p-1"},
		Tags:        []string{"a"},
	}

	t.Run("partial", func(t *testing.T) {
		tk := original
		done := StatusCompleted

		if err := (UpdateTaskRequest{Status: &done, DueDate: DueDateOn(due)}).Apply(&tk); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if tk.Status != StatusCompleted || tk.Title != "draft" || tk.Description != "keep" {
			t.Fatalf("unexpected task %+v", tk)
		}
		if tk.DueDate == nil || tk.DueDate.Location() != time.UTC || !tk.DueDate.Equal(due) {
			t.Fatalf("due date should be stored in UTC, got %v", tk.DueDate)
		}
		if tk.ProjectID == nil || *tk.ProjectID != "p-1" {
			t.Fatalf("project should be untouched")
		}
	})

	t.Run("clear due date", func(t *testing.T) {
		tk := original
		tk.DueDate = &due

		if err := (UpdateTaskRequest{DueDate: ClearDueDate()}).Apply(&tk); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if tk.DueDate != nil {
			t.Fatalf("due date should be cleared, got %v", tk.DueDate)
		}
	})

	t.Run("absent due date untouched", func(t *testing.T) {
		tk := original
		tk.DueDate = &due

		if err := (UpdateTaskRequest{Title: strPtr("renamed")}).Apply(&tk); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if tk.DueDate == nil {
			t.Fatalf("due date should be kept")
		}
	})

	t.Run("clear project", func(t *testing.T) {
		tk := original
		if err := (UpdateTaskRequest{Project: strPtr("")}).Apply(&tk); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if tk.ProjectID != nil || tk.Project != nil {
			t.Fatalf("project should be cleared")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		tk := original
		bad := Priority("urgent")
		if err := (UpdateTaskRequest{Priority: &bad}).Apply(&tk); !errors.Is(err, ErrInvalidPriority) {
			t.Fatalf("got %v", err)
		}
		if err := (UpdateTaskRequest{Title: strPtr(" ")}).Apply(&tk); !errors.Is(err, ErrInvalidTitle) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" home ", "", "work", "home", "  "})
	want := []string{"home", "work"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListTasksFilter(t *testing.T) {
	pending := StatusPending
	high := PriorityHigh

	tk := Task{Status: StatusPending, Priority: PriorityHigh, ProjectID: strPtr("p-1"), Tags: []string{"home"}}

	tests := []struct {
		name   string
		filter ListTasksFilter
		want   bool
	}{
		{name: "empty", filter: ListTasksFilter{}, want: true},
		{name: "status and priority", filter: ListTasksFilter{Status: &pending, Priority: &high}, want: true},
		{name: "other project", filter: ListTasksFilter{ProjectID: strPtr("p-2")}, want: false},
		{name: "tag hit", filter: ListTasksFilter{Tag: strPtr("home")}, want: true},
		{name: "tag miss", filter: ListTasksFilter{Tag: strPtr("work")}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tk); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	bogus := Status("archived")
	if err := (ListTasksFilter{Status: &bogus}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("got %v", err)
	}
}

func TestDueDate_UnmarshalJSON(t *testing.T) {
	may1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    string
		wantSet bool
		want    *time.Time
		wantErr error
	}{
		{name: "absent", body: `{}`},
		{name: "date only", body: `{"dueDate":"2024-05-01"}`, wantSet: true, want: &may1},
		{name: "rfc3339", body: `{"dueDate":"2024-05-01T02:00:00+02:00"}`, wantSet: true, want: &may1},
		{name: "null", body: `{"dueDate":null}`, wantSet: true},
		{name: "empty string", body: `{"dueDate":""}`, wantSet: true},
		{name: "garbage", body: `{"dueDate":"next tuesday"}`, wantErr: ErrInvalidDueDate},
		{name: "number", body: `{"dueDate":20240501}`, wantErr: ErrInvalidDueDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req UpdateTaskRequest
			err := json.Unmarshal([]byte(tc.body), &req)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			if req.DueDate.Set != tc.wantSet {
				t.Fatalf("Set = %v, want %v", req.DueDate.Set, tc.wantSet)
			}
			switch {
			case tc.want == nil && req.DueDate.Time != nil:
				t.Fatalf("expected no time, got %v", req.DueDate.Time)
			case tc.want != nil && (req.DueDate.Time == nil || !req.DueDate.Time.Equal(*tc.want)):
				t.Fatalf("got %v, want %v", req.DueDate.Time, tc.want)
			}
		})
	}
}

func TestDueDate_MarshalOmitsUnset(t *testing.T) {
	b, err := json.Marshal(UpdateTaskRequest{Title: strPtr("x")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(string(b), "dueDate") {
		t.Fatalf("unset dueDate should be omitted: %s", b)
	}

	b, err = json.Marshal(UpdateTaskRequest{DueDate: ClearDueDate()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(string(b), `"dueDate":null`) {
		t.Fatalf("cleared dueDate should be sent as null: %s", b)
	}
}
