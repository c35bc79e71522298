package campaign

import "testing"

func TestOrderedDimensions(t *testing.T) {
	plan := &ResearchPlan{Dimensions: []ResearchDimension{
		{Name: "A", Priority: "medium"},
		{Name: "B", Priority: "high"},
		{Name: "C", Priority: "low"},
		{Name: "D", Priority: "high"},
	}}
	got := plan.OrderedDimensions()
	want := []string{"B", "D", "A", "C"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
		}
	}
	// Sorting must not reorder the plan itself.
	if plan.Dimensions[0].Name != "A" {
		t.Error("OrderedDimensions mutated the plan")
	}
}

func TestOrderedDimensionsUnknownPrioritySortsLast(t *testing.T) {
	plan := &ResearchPlan{Dimensions: []ResearchDimension{
		{Name: "X", Priority: "urgent"},
		{Name: "Y", Priority: "low"},
	}}
	got := plan.OrderedDimensions()
	if got[0].Name != "Y" || got[1].Name != "X" {
		t.Errorf("order = [%s %s], want [Y X]", got[0].Name, got[1].Name)
	}
}
