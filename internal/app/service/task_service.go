package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/app/policy"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	errTaskNotFound  = common.NewError(common.ErrNotFound, "Task not found")
	errTaskForbidden = common.NewError(common.ErrForbidden, "Forbidden")
)

// TaskService is the only path from handlers to task storage. Every
// operation checks the principal against the owner-or-admin rule.
type TaskService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, now: time.Now}
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress done"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// UpdateTaskRequest lists the only fields a client may change. Anything
// else in the body, owner included, is dropped by decoding.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitnil,oneof=todo in-progress done"`
	DueDate     *string `json:"dueDate,omitempty"`
}

type ListTasksQuery struct {
	AllOwners bool
	Status    string
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (s *TaskService) Create(ctx context.Context, principal *model.User, req CreateTaskRequest) (*model.Task, error) {
	if principal == nil || principal.ID == "" {
		return nil, errUnauthenticated
	}

	var problems []common.FieldError
	title := strings.TrimSpace(req.Title)
	if title == "" {
		problems = append(problems, common.FieldError{Field: "title", Message: "Title is required"})
	}
	status := model.TaskStatusTodo
	if req.Status != "" {
		parsed, err := model.ParseTaskStatus(req.Status)
		if err != nil {
			problems = append(problems, common.FieldError{Field: "status", Message: "Invalid status"})
		}
		status = parsed
	}
	var dueDate *time.Time
	if req.DueDate != nil {
		d, err := ParseDueDate(*req.DueDate)
		if err != nil {
			problems = append(problems, common.FieldError{Field: "dueDate", Message: "Invalid date"})
		}
		dueDate = &d
	}
	if len(problems) > 0 {
		return nil, common.NewValidationError(problems...)
	}

	now := s.now().UTC()
	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: req.Description,
		Status:      status,
		DueDate:     dueDate,
		OwnerID:     principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// load fetches the task and applies the access rule. A missing task is
// reported before any authorization decision.
func (s *TaskService) load(ctx context.Context, principal *model.User, id, operation string) (*model.Task, error) {
	if principal == nil || principal.ID == "" {
		return nil, errUnauthenticated
	}
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	decision := policy.Authorize(principal, task.OwnerID)
	taskAccessDecisions.WithLabelValues(operation, decision.String()).Inc()
	if decision != policy.Allowed {
		logger.Info("task access denied", "operation", operation, "task_id", id, "user_id", principal.ID)
		return nil, errTaskForbidden
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, principal *model.User, id string) (*model.Task, error) {
	return s.load(ctx, principal, id, "get")
}

// Update applies the allow-listed fields in req. A request that changes
// nothing leaves UpdatedAt untouched.
func (s *TaskService) Update(ctx context.Context, principal *model.User, id string, req UpdateTaskRequest) (*model.Task, error) {
	patch, err := buildPatch(req)
	if err != nil {
		return nil, err
	}

	task, err := s.load(ctx, principal, id, "update")
	if err != nil {
		return nil, err
	}
	if !patch.Apply(task) {
		return task, nil
	}
	task.UpdatedAt = s.now().UTC()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// Replace is Update with a mandatory title.
func (s *TaskService) Replace(ctx context.Context, principal *model.User, id string, req UpdateTaskRequest) (*model.Task, error) {
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, common.NewValidationError(common.FieldError{Field: "title", Message: "Title is required"})
	}
	return s.Update(ctx, principal, id, req)
}

func (s *TaskService) Delete(ctx context.Context, principal *model.User, id string) error {
	task, err := s.load(ctx, principal, id, "delete")
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return errTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	logger.Info("task deleted", "task_id", task.ID, "owner_id", task.OwnerID, "user_id", principal.ID)
	return nil
}

// List returns the principal's tasks, newest first. Only admins asking for
// all owners get an unscoped listing.
func (s *TaskService) List(ctx context.Context, principal *model.User, q ListTasksQuery) ([]model.Task, error) {
	owner, decision := policy.ListScope(principal, q.AllOwners)
	if decision != policy.Allowed {
		return nil, errUnauthenticated
	}

	filter := model.TaskFilter{OwnerID: owner}
	if q.Status != "" {
		status, err := model.ParseTaskStatus(q.Status)
		if err != nil {
			return nil, common.NewValidationError(common.FieldError{Field: "status", Message: "Invalid status"})
		}
		filter.Status = status
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func buildPatch(req UpdateTaskRequest) (model.TaskPatch, error) {
	var (
		patch    model.TaskPatch
		problems []common.FieldError
	)
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			problems = append(problems, common.FieldError{Field: "title", Message: "Title cannot be empty"})
		}
		patch.Title = &title
	}
	patch.Description = req.Description
	if req.Status != nil {
		status, err := model.ParseTaskStatus(*req.Status)
		if err != nil {
			problems = append(problems, common.FieldError{Field: "status", Message: "Invalid status"})
		}
		patch.Status = &status
	}
	if req.DueDate != nil {
		d, err := ParseDueDate(*req.DueDate)
		if err != nil {
			problems = append(problems, common.FieldError{Field: "dueDate", Message: "Invalid date"})
		}
		patch.DueDate = &d
	}
	if len(problems) > 0 {
		return model.TaskPatch{}, common.NewValidationError(problems...)
	}
	return patch, nil
}
