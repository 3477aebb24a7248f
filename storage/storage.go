package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"tasklist-api/domain"
)

// Storage provides access to the lists and tasks tables. Documents are keyed
// by their string-encoded UUID as both PartitionKey and RowKey.
type Storage struct {
	listTable *aztables.Client
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, listsTable, tasksTable string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Second * 30,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{listTable: svc.NewClient(listsTable), taskTable: svc.NewClient(tasksTable)}, nil
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type listEntity struct {
	entityKeys
	Name     string `json:"Name"`
	Username string `json:"Username"`
}

func (e listEntity) record() domain.TaskListRecord {
	return domain.TaskListRecord{ID: e.RowKey, Name: e.Name, Username: e.Username}
}

type taskEntity struct {
	entityKeys
	Task     string `json:"Task"`
	ListID   string `json:"ListId"`
	Notes    string `json:"Notes"`
	Complete bool   `json:"Complete"`
	Pinned   bool   `json:"Pinned"`
	Username string `json:"Username"`
}

func (e taskEntity) record() domain.TaskRecord {
	return domain.TaskRecord{
		ID:       e.RowKey,
		Task:     e.Task,
		ListID:   e.ListID,
		Notes:    e.Notes,
		Complete: e.Complete,
		Pinned:   e.Pinned,
		Username: e.Username,
	}
}

// taskMerge carries the key pair plus only the fields being changed.
type taskMerge struct {
	entityKeys
	Task     *string `json:"Task,omitempty"`
	ListID   *string `json:"ListId,omitempty"`
	Notes    *string `json:"Notes,omitempty"`
	Complete *bool   `json:"Complete,omitempty"`
	Pinned   *bool   `json:"Pinned,omitempty"`
}

func keysFor(id string) entityKeys {
	return entityKeys{PartitionKey: id, RowKey: id}
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// InsertList persists a new task list record.
func (s *Storage) InsertList(ctx context.Context, rec domain.TaskListRecord) error {
	ent := listEntity{entityKeys: keysFor(rec.ID), Name: rec.Name, Username: rec.Username}
	payload, err := json.Marshal(ent)
	if err == nil {
		_, err = s.listTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// GetList retrieves a task list by primary key, nil when absent.
func (s *Storage) GetList(ctx context.Context, id string) (*domain.TaskListRecord, error) {
	ent, err := s.listTable.GetEntity(ctx, id, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var le listEntity
	if err := json.Unmarshal(ent.Value, &le); err != nil {
		return nil, err
	}
	rec := le.record()
	return &rec, nil
}

// ListsByOwner retrieves all task lists owned by the given username.
func (s *Storage) ListsByOwner(ctx context.Context, username string) ([]domain.TaskListRecord, error) {
	f := new(filter).eqString("Username", username).String()
	pager := s.listTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &f})
	lists := []domain.TaskListRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var le listEntity
			if err := json.Unmarshal(e, &le); err != nil {
				return nil, err
			}
			lists = append(lists, le.record())
		}
	}
	return lists, nil
}

// DeleteList removes a task list by primary key.
func (s *Storage) DeleteList(ctx context.Context, id string) error {
	_, err := s.listTable.DeleteEntity(ctx, id, id, nil)
	return err
}

// InsertTask persists a new task record.
func (s *Storage) InsertTask(ctx context.Context, rec domain.TaskRecord) error {
	ent := taskEntity{
		entityKeys: keysFor(rec.ID),
		Task:       rec.Task,
		ListID:     rec.ListID,
		Notes:      rec.Notes,
		Complete:   rec.Complete,
		Pinned:     rec.Pinned,
		Username:   rec.Username,
	}
	payload, err := json.Marshal(ent)
	if err == nil {
		_, err = s.taskTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// GetTask retrieves a task by primary key, nil when absent.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.TaskRecord, error) {
	ent, err := s.taskTable.GetEntity(ctx, id, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var te taskEntity
	if err := json.Unmarshal(ent.Value, &te); err != nil {
		return nil, err
	}
	rec := te.record()
	return &rec, nil
}

// QueryTasks retrieves the owner's tasks in a list, filtered by completion
// state and, when pinned is non-nil, by pinned state.
func (s *Storage) QueryTasks(ctx context.Context, username, listID string, complete bool, pinned *bool) ([]domain.TaskRecord, error) {
	f := new(filter).eqString("Username", username).eqString("ListId", listID).eqBool("Complete", complete)
	if pinned != nil {
		f.eqBool("Pinned", *pinned)
	}
	expr := f.String()
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &expr})
	tasks := []domain.TaskRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var te taskEntity
			if err := json.Unmarshal(e, &te); err != nil {
				return nil, err
			}
			tasks = append(tasks, te.record())
		}
	}
	return tasks, nil
}

// UpdateTask merges the patch into an existing task entity. Nil patch fields
// are left untouched; concurrent updates race last-write-wins.
func (s *Storage) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) error {
	ent := taskMerge{
		entityKeys: keysFor(id),
		Task:       patch.Task,
		ListID:     patch.ListID,
		Notes:      patch.Notes,
		Complete:   patch.Complete,
		Pinned:     patch.Pinned,
	}
	payload, err := json.Marshal(ent)
	if err == nil {
		et := azcore.ETagAny
		_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	}
	return err
}

// DeleteTask removes a task by primary key.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, id, id, nil)
	return err
}

// DeleteTasksByList removes every task whose ListId matches. The cascade is
// best effort and not atomic with the list delete: a failure part way leaves
// orphaned tasks behind. Returns the number of tasks removed.
func (s *Storage) DeleteTasksByList(ctx context.Context, listID string) (int, error) {
	f := new(filter).eqString("ListId", listID).String()
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &f})
	deleted := 0
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return deleted, err
		}
		for _, e := range resp.Entities {
			var keys entityKeys
			if err := json.Unmarshal(e, &keys); err != nil {
				return deleted, err
			}
			if _, err := s.taskTable.DeleteEntity(ctx, keys.PartitionKey, keys.RowKey, nil); err != nil && !isNotFound(err) {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
