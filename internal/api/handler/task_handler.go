package handler

import (
	"context"
	"net/http"

	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type taskResponse struct {
	Task *model.Task `json:"task"`
}

type taskListResponse struct {
	Tasks []model.Task `json:"tasks"`
}

type TaskHandler struct {
	taskService *service.TaskService
	debug       bool
}

func NewTaskHandler(taskService *service.TaskService, debug bool) *TaskHandler {
	return &TaskHandler{taskService: taskService, debug: debug}
}

// RegisterRoutes expects to be mounted behind the authenticator.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.getTask)
		r.Patch("/", h.updateTask)
		r.Put("/", h.replaceTask)
		r.Delete("/", h.deleteTask)
	})
}

func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	common.RespondWithAppError(w, r, err, h.debug)
}

// principal returns the caller or writes a 401.
func (h *TaskHandler) principal(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return user, ok
}

func taskIDParam(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		return "", common.NewValidationError(common.FieldError{Field: "id", Message: "Invalid task id"})
	}
	return id.String(), nil
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := service.ListTasksQuery{Status: q.Get("status")}
	switch scope := q.Get("scope"); scope {
	case "", "own":
	case "all":
		query.AllOwners = true
	default:
		h.fail(w, r, common.NewValidationError(common.FieldError{Field: "scope", Message: "Invalid scope"}))
		return
	}

	tasks, err := h.taskService.List(r.Context(), user, query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, taskListResponse{Tasks: tasks})
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req service.CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), user, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, taskResponse{Task: task})
}

func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := taskIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.taskService.Get(r.Context(), user, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, taskResponse{Task: task})
}

func (h *TaskHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.taskService.Update)
}

func (h *TaskHandler) replaceTask(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.taskService.Replace)
}

type updateFunc func(ctx context.Context, principal *model.User, id string, req service.UpdateTaskRequest) (*model.Task, error)

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, apply updateFunc) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := taskIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req service.UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := apply(r.Context(), user, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, taskResponse{Task: task})
}

func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := taskIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.taskService.Delete(r.Context(), user, id); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
