package domain

import "testing"

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestComputePatchSkipsUnchangedAndAbsent(t *testing.T) {
	existing := TaskRecord{ID: "1", Task: "A", Notes: "x", Complete: false}
	proposed := TaskUpdate{Task: strPtr("A"), Complete: boolPtr(true)}

	p := ComputePatch(existing, proposed)

	if p.Task != nil {
		t.Fatalf("expected unchanged task to be skipped, got %q", *p.Task)
	}
	if p.Notes != nil || p.ListID != nil || p.Pinned != nil {
		t.Fatalf("expected absent fields to be skipped, got %+v", p)
	}
	if p.Complete == nil || !*p.Complete {
		t.Fatalf("expected complete=true in patch, got %+v", p.Complete)
	}
}

func TestComputePatchSkipsEmptyStrings(t *testing.T) {
	existing := TaskRecord{Task: "A", Notes: "keep me"}
	proposed := TaskUpdate{Task: strPtr(""), Notes: strPtr(""), ListID: strPtr("")}

	if p := ComputePatch(existing, proposed); !p.Empty() {
		t.Fatalf("expected empty patch, got %+v", p)
	}
}

func TestComputePatchIncludesChangedFields(t *testing.T) {
	existing := TaskRecord{Task: "A", ListID: "l1", Notes: "x", Pinned: false}
	proposed := TaskUpdate{
		Task:   strPtr("B"),
		ListID: strPtr("l2"),
		Notes:  strPtr("y"),
		Pinned: boolPtr(true),
	}

	p := ComputePatch(existing, proposed)

	if p.Task == nil || *p.Task != "B" {
		t.Fatalf("expected task change, got %+v", p.Task)
	}
	if p.ListID == nil || *p.ListID != "l2" {
		t.Fatalf("expected list_id change, got %+v", p.ListID)
	}
	if p.Notes == nil || *p.Notes != "y" {
		t.Fatalf("expected notes change, got %+v", p.Notes)
	}
	if p.Pinned == nil || !*p.Pinned {
		t.Fatalf("expected pinned change, got %+v", p.Pinned)
	}
}

func TestComputePatchIdempotent(t *testing.T) {
	existing := TaskRecord{Task: "A", Notes: "x", Complete: true, Pinned: true}
	proposed := TaskUpdate{
		Task:     strPtr("A"),
		Notes:    strPtr("x"),
		Complete: boolPtr(true),
		Pinned:   boolPtr(true),
	}

	if p := ComputePatch(existing, proposed); !p.Empty() {
		t.Fatalf("re-sending current state must yield an empty patch, got %+v", p)
	}
}

func TestComputePatchBoolFalseIsNotAbsent(t *testing.T) {
	existing := TaskRecord{Complete: true, Pinned: true}
	proposed := TaskUpdate{Complete: boolPtr(false)}

	p := ComputePatch(existing, proposed)
	if p.Complete == nil || *p.Complete {
		t.Fatalf("expected complete=false in patch, got %+v", p.Complete)
	}
	if p.Pinned != nil {
		t.Fatalf("expected pinned untouched, got %+v", p.Pinned)
	}
}
