package domain

// User identifies the authenticated caller. It is reconstructed per request
// from a verified token claim and never persisted.
type User struct {
	Username string `json:"username"`
}

// TaskList is the client-supplied portion of a task list.
type TaskList struct {
	Name string `json:"name"`
}

// TaskListRecord is a task list as persisted, with server-assigned fields.
type TaskListRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Task is the client-supplied portion of a task. ListID is a soft foreign
// key to TaskListRecord.ID; no referential integrity is enforced.
type Task struct {
	Task     string `json:"task"`
	ListID   string `json:"list_id"`
	Notes    string `json:"notes,omitempty"`
	Complete bool   `json:"complete"`
	Pinned   bool   `json:"pinned"`
}

// TaskRecord is a task as persisted.
type TaskRecord struct {
	ID       string `json:"_id"`
	Task     string `json:"task"`
	ListID   string `json:"list_id"`
	Notes    string `json:"notes,omitempty"`
	Complete bool   `json:"complete"`
	Pinned   bool   `json:"pinned"`
	Username string `json:"username"`
}

// TaskUpdate carries a proposed partial update. Fields absent from the
// request body stay nil.
type TaskUpdate struct {
	Task     *string `json:"task"`
	ListID   *string `json:"list_id"`
	Notes    *string `json:"notes"`
	Complete *bool   `json:"complete"`
	Pinned   *bool   `json:"pinned"`
}
