package api

import (
	"context"

	"tasklist-api/domain"
)

// Storage abstracts persistence for handlers. Get methods return nil without
// error when no document matches the id.
type Storage interface {
	InsertList(ctx context.Context, rec domain.TaskListRecord) error
	GetList(ctx context.Context, id string) (*domain.TaskListRecord, error)
	ListsByOwner(ctx context.Context, username string) ([]domain.TaskListRecord, error)
	DeleteList(ctx context.Context, id string) error

	InsertTask(ctx context.Context, rec domain.TaskRecord) error
	GetTask(ctx context.Context, id string) (*domain.TaskRecord, error)
	QueryTasks(ctx context.Context, username, listID string, complete bool, pinned *bool) ([]domain.TaskRecord, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByList(ctx context.Context, listID string) (int, error)
}

// Authenticator is implemented by types able to resolve users from headers.
type Authenticator interface {
	UserFromAuthHeader(string) (domain.User, error)
}
