package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"planflow-api/domain"
)

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	taskTable     *aztables.Client
	categoryTable *aztables.Client
	eventQueue    *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, categoriesTable, eventQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
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
	tt := svc.NewClient(tasksTable)
	ct := svc.NewClient(categoriesTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, categoryTable: ct, eventQueue: eq}, nil
}

// ListTasks retrieves all tasks for the provided user.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var row taskRow
			if err := json.Unmarshal(e, &row); err != nil {
				return nil, err
			}
			tasks = append(tasks, taskToDomain(row))
		}
	}
	return tasks, nil
}

// ListCategories retrieves the user's categories ordered by position.
func (s *Storage) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.categoryTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	cats := []domain.Category{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var row categoryRow
			if err := json.Unmarshal(e, &row); err != nil {
				return nil, err
			}
			cats = append(cats, categoryToDomain(row))
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Position < cats[j].Position })
	return cats, nil
}

// InsertTasks writes the given tasks as new rows.
func (s *Storage) InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	for _, t := range tasks {
		data, err := json.Marshal(taskToRow(userID, t))
		if err != nil {
			return err
		}
		if _, err := s.taskTable.AddEntity(ctx, data, nil); err != nil {
			return err
		}
	}
	return nil
}

// InsertCategories writes the given categories as new rows.
func (s *Storage) InsertCategories(ctx context.Context, userID string, cats []domain.Category) error {
	for _, c := range cats {
		data, err := json.Marshal(categoryToRow(userID, c))
		if err != nil {
			return err
		}
		if _, err := s.categoryTable.AddEntity(ctx, data, nil); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTask merges the changed fields into an existing task row.
func (s *Storage) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) error {
	data, err := json.Marshal(taskPatchToRow(userID, id, patch))
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	return err
}

// UpdateCategory merges the changed fields into an existing category row.
func (s *Storage) UpdateCategory(ctx context.Context, userID, id string, patch domain.CategoryPatch) error {
	data, err := json.Marshal(categoryPatchToRow(userID, id, patch))
	if err != nil {
		return err
	}
	_, err = s.categoryTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	return err
}

// DeleteTask removes a task row. A row that is already gone is fine.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, userID, id, nil)
	return ignoreNotFound(err)
}

// DeleteCategory removes a category row.
func (s *Storage) DeleteCategory(ctx context.Context, userID, id string) error {
	_, err := s.categoryTable.DeleteEntity(ctx, userID, id, nil)
	return ignoreNotFound(err)
}

// UpsertCategories replaces the given category rows, creating any that do
// not exist yet. Reorders go through here so every position lands in one
// pass regardless of prior row state.
func (s *Storage) UpsertCategories(ctx context.Context, userID string, cats []domain.Category) error {
	for _, c := range cats {
		data, err := json.Marshal(categoryToRow(userID, c))
		if err != nil {
			return err
		}
		opts := &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}
		if _, err := s.categoryTable.UpsertEntity(ctx, data, opts); err != nil {
			return err
		}
	}
	return nil
}

// PublishEvents sends the given board events to the event queue.
func (s *Storage) PublishEvents(ctx context.Context, userID string, events []domain.Event) error {
	for _, ev := range events {
		env := domain.EventEnvelope{UserID: userID, Event: ev}
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := s.eventQueue.EnqueueMessage(ctx, string(data), nil); err != nil {
			return err
		}
	}
	return nil
}

func ignoreNotFound(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return nil
	}
	return err
}
