package domain

import "errors"

// ErrInvalidDocument is returned both when a document does not exist and when
// it belongs to someone else. The two cases must stay indistinguishable so a
// caller cannot probe for the existence of other users' documents.
var ErrInvalidDocument = errors.New("invalid document, ensure the document exists and you are the owner")

// Owned is implemented by persisted records that carry an owning username.
type Owned interface {
	Owner() string
}

func (l TaskListRecord) Owner() string { return l.Username }

func (t TaskRecord) Owner() string { return t.Username }

// CheckOwner guards id-scoped operations. It passes only when the document
// was found and is owned by the caller; it must run before any mutation,
// deletion or single-document read result is released.
func CheckOwner[D Owned](user User, doc *D) error {
	if doc == nil || (*doc).Owner() != user.Username {
		return ErrInvalidDocument
	}
	return nil
}
