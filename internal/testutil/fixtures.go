package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/google/uuid"
)

var testCodeCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithCode(code string) ProjectOption {
	return func(p *domain.Project) {
		p.Code = code
	}
}

func defaultCode(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testCodeCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	p := &domain.Project{
		ID:        uuid.New().String(),
		Code:      defaultCode(name),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

// WithSchedule sets the start date and duration; the end date follows.
func WithSchedule(start time.Time, duration int) TaskOption {
	return func(t *domain.Task) {
		t.StartDate = calendar.Normalize(start)
		t.Duration = duration
		t.EndDate = calendar.BusinessEndDate(t.StartDate, duration)
	}
}

func WithProgress(p int) TaskOption {
	return func(t *domain.Task) {
		t.Progress = p
	}
}

func WithPredecessors(preds ...string) TaskOption {
	return func(t *domain.Task) {
		t.Predecessors = preds
	}
}

func WithNotes(notes string) TaskOption {
	return func(t *domain.Task) {
		t.Notes = notes
	}
}

func WithResources(r string) TaskOption {
	return func(t *domain.Task) {
		t.Resources = r
	}
}

// Monday is the default start date of test tasks (2024-06-03).
var Monday = calendar.Date(2024, time.June, 3)

func NewTestTask(projectID, hierarchy, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:              uuid.New().String(),
		ProjectID:       projectID,
		HierarchyNumber: hierarchy,
		Name:            name,
		StartDate:       Monday,
		EndDate:         Monday,
		Duration:        1,
		Predecessors:    []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
