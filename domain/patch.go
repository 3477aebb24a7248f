package domain

// TaskPatch is the minimal set of field changes to persist for an update.
// Nil fields are left untouched by the store merge.
type TaskPatch struct {
	Task     *string
	ListID   *string
	Notes    *string
	Complete *bool
	Pinned   *bool
}

// Empty reports whether applying the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return p.Task == nil && p.ListID == nil && p.Notes == nil && p.Complete == nil && p.Pinned == nil
}

// ComputePatch filters a proposed update against the existing record. A field
// is kept only when it was supplied, is not an empty string, and differs from
// the current value, so re-sending the current state yields an empty patch.
func ComputePatch(existing TaskRecord, proposed TaskUpdate) TaskPatch {
	var p TaskPatch
	if v := proposed.Task; v != nil && *v != "" && *v != existing.Task {
		p.Task = v
	}
	if v := proposed.ListID; v != nil && *v != "" && *v != existing.ListID {
		p.ListID = v
	}
	if v := proposed.Notes; v != nil && *v != "" && *v != existing.Notes {
		p.Notes = v
	}
	if v := proposed.Complete; v != nil && *v != existing.Complete {
		p.Complete = v
	}
	if v := proposed.Pinned; v != nil && *v != existing.Pinned {
		p.Pinned = v
	}
	return p
}
