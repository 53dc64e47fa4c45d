package handlers

import (
	"net/http"

	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TaskRequest is the whitelisted task body; any other field is ignored.
type TaskRequest struct {
	Title   string `json:"title"`
	Details string `json:"details"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

func (r TaskRequest) input() services.TaskInput {
	return services.TaskInput{
		Title:   r.Title,
		Details: r.Details,
		Date:    r.Date,
		Time:    r.Time,
		Status:  r.Status,
	}
}

type TaskHandler struct {
	responder
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService, exposeCause bool) *TaskHandler {
	return &TaskHandler{responder: responder{exposeCause: exposeCause}, tasks: tasks}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req TaskRequest
	if !h.bind(c, &req) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": task.ID})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req TaskRequest
	if !h.bind(c, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
