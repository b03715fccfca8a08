package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/service"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) TaskCreated(t *domain.Task) { n.add("created:" + t.Description) }
func (n *recordingNotifier) TaskUpdated(t *domain.Task) { n.add("updated:" + t.Description) }
func (n *recordingNotifier) TaskDeleted(t *domain.Task) { n.add("deleted:" + t.Description) }

func (n *recordingNotifier) add(e string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	f.tasks.SetNotifier(notifier)
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.tasks.Create(ctx, owner, service.CreateTaskInput{Description: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Description != "Buy milk" || task.Completed || task.OwnerID != owner {
		t.Errorf("created task = %+v", task)
	}

	got, err := f.tasks.Get(ctx, owner, task.ID)
	if err != nil || got.ID != task.ID {
		t.Fatalf("Get = %v, %v", got, err)
	}

	done := true
	updated, err := f.tasks.Update(ctx, owner, task.ID, service.UpdateTaskInput{Completed: &done})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Description != "Buy milk" {
		t.Errorf("updated task = %+v", updated)
	}

	empty := "   "
	var verr *service.ValidationError
	if _, err := f.tasks.Update(ctx, owner, task.ID, service.UpdateTaskInput{Description: &empty}); !errors.As(err, &verr) {
		t.Errorf("blank description err = %v", err)
	}

	deleted, err := f.tasks.Delete(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.ID != task.ID {
		t.Errorf("Delete returned %v", deleted.ID)
	}
	if _, err := f.tasks.Get(ctx, owner, task.ID); !errors.Is(err, service.ErrTaskNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}

	want := []string{"created:Buy milk", "updated:Buy milk", "deleted:Buy milk"}
	if len(notifier.events) != len(want) {
		t.Fatalf("events = %v, want %v", notifier.events, want)
	}
	for i := range want {
		if notifier.events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, notifier.events[i], want[i])
		}
	}
}

func TestTaskCreateRequiresDescription(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.Create(context.Background(), uuid.New(), service.CreateTaskInput{})
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["description"]; !ok {
		t.Errorf("fields = %v", verr.Fields)
	}
}

func TestTasksAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()

	task, err := f.tasks.Create(ctx, owner, service.CreateTaskInput{Description: "private"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.tasks.Get(ctx, intruder, task.ID); !errors.Is(err, service.ErrTaskNotFound) {
		t.Errorf("Get err = %v", err)
	}
	done := true
	if _, err := f.tasks.Update(ctx, intruder, task.ID, service.UpdateTaskInput{Completed: &done}); !errors.Is(err, service.ErrTaskNotFound) {
		t.Errorf("Update err = %v", err)
	}
	if _, err := f.tasks.Delete(ctx, intruder, task.ID); !errors.Is(err, service.ErrTaskNotFound) {
		t.Errorf("Delete err = %v", err)
	}

	list, err := f.tasks.List(ctx, intruder, domain.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("intruder list = %#v, want empty slice", list)
	}

	got, err := f.tasks.Get(ctx, owner, task.ID)
	if err != nil || got.Completed {
		t.Errorf("owner's task changed: %+v, %v", got, err)
	}
}

func TestTaskList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, in := range []service.CreateTaskInput{
		{Description: "b", Completed: true},
		{Description: "a"},
		{Description: "d", Completed: true},
		{Description: "c", Completed: true},
	} {
		if _, err := f.tasks.Create(ctx, owner, in); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.tasks.Create(ctx, uuid.New(), service.CreateTaskInput{Description: "other"}); err != nil {
		t.Fatal(err)
	}

	yes, no := true, false
	tests := []struct {
		name   string
		filter domain.TaskFilter
		want   []string
	}{
		{name: "all in creation order", want: []string{"b", "a", "d", "c"}},
		{name: "completed", filter: domain.TaskFilter{Completed: &yes}, want: []string{"b", "d", "c"}},
		{name: "incomplete", filter: domain.TaskFilter{Completed: &no}, want: []string{"a"}},
		{name: "newest first", filter: domain.TaskFilter{SortField: domain.TaskSortCreatedAt, SortDesc: true}, want: []string{"c", "d", "a", "b"}},
		{name: "by description", filter: domain.TaskFilter{SortField: domain.TaskSortDescription}, want: []string{"a", "b", "c", "d"}},
		{name: "limit", filter: domain.TaskFilter{Limit: 2}, want: []string{"b", "a"}},
		{name: "skip and limit", filter: domain.TaskFilter{Skip: 1, Limit: 2}, want: []string{"a", "d"}},
		{name: "skip past end", filter: domain.TaskFilter{Skip: 10}, want: []string{}},
		{name: "completed newest first limit 1", filter: domain.TaskFilter{Completed: &yes, SortField: domain.TaskSortCreatedAt, SortDesc: true, Limit: 1}, want: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.tasks.List(ctx, owner, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			got := make([]string, 0, len(tasks))
			for _, task := range tasks {
				got = append(got, task.Description)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
