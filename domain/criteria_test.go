package domain

import "testing"

func sampleTasks() []Task {
	return []Task{
		{ID: "1", Title: "Write report", Description: "quarterly numbers", Status: StatusPending, Priority: PriorityHigh, Tags: []string{"work"}},
		{ID: "2", Title: "Buy groceries", Status: StatusInProgress, Priority: PriorityLow, Tags: []string{"home", "errands"}},
		{ID: "3", Title: "Review PR", Description: "board engine", Status: StatusCompleted, Priority: PriorityMedium},
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestFilterNoCriteria(t *testing.T) {
	got := Filter(sampleTasks(), Criteria{})
	if len(got) != 3 {
		t.Fatalf("expected all tasks, got %v", ids(got))
	}
	for i, id := range []string{"1", "2", "3"} {
		if got[i].ID != id {
			t.Fatalf("expected input order preserved, got %v", ids(got))
		}
	}
}

func TestFilterQuery(t *testing.T) {
	testCases := map[string]struct {
		query string
		want  []string
	}{
		"title":            {query: "report", want: []string{"1"}},
		"title_case":       {query: "REPORT", want: []string{"1"}},
		"description":      {query: "numbers", want: []string{"1"}},
		"status":           {query: "in-progress", want: []string{"2"}},
		"priority":         {query: "medium", want: []string{"3"}},
		"tag":              {query: "errand", want: []string{"2"}},
		"whitespace_only":  {query: "   ", want: []string{"1", "2", "3"}},
		"trimmed":          {query: "  report  ", want: []string{"1"}},
		"no_match":         {query: "zzz", want: []string{}},
		"substring_shared": {query: "r", want: []string{"1", "2", "3"}},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := Filter(sampleTasks(), Criteria{Query: tc.query})
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ids(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected %v, got %v", tc.want, ids(got))
				}
			}
		})
	}
}

func TestFilterStatus(t *testing.T) {
	got := Filter(sampleTasks(), Criteria{Status: "pending"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected task 1, got %v", ids(got))
	}
	got = Filter(sampleTasks(), Criteria{Status: FilterAll})
	if len(got) != 3 {
		t.Fatalf("expected all tasks for %q filter, got %v", FilterAll, ids(got))
	}
}

func TestFilterPriority(t *testing.T) {
	got := Filter(sampleTasks(), Criteria{Priority: "low"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected task 2, got %v", ids(got))
	}
	got = Filter(sampleTasks(), Criteria{Priority: FilterAll})
	if len(got) != 3 {
		t.Fatalf("expected all tasks for %q filter, got %v", FilterAll, ids(got))
	}
}

func TestFilterCombined(t *testing.T) {
	tasks := sampleTasks()
	got := Filter(tasks, Criteria{Query: "r", Status: "pending", Priority: "high"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only task 1 to satisfy all criteria, got %v", ids(got))
	}
	got = Filter(tasks, Criteria{Query: "report", Status: "completed"})
	if len(got) != 0 {
		t.Fatalf("expected conjunction to exclude everything, got %v", ids(got))
	}
}
