package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/middleware"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// TaskHandler manages staff tasks and their comment threads.
type TaskHandler struct {
	store storage.Store
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(store storage.Store) *TaskHandler {
	return &TaskHandler{store: store}
}

// Create assigns a task. The assigner is the authenticated user.
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req models.TaskCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if _, err := h.store.GetUser(req.AssignedToID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignee not found",
		})
	}
	if req.LeadID != 0 {
		if _, err := h.store.GetLead(req.LeadID); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lead not found",
			})
		}
	}

	task := &models.Task{
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		LeadID:       req.LeadID,
		DueDate:      req.DueDate,
		Priority:     req.Priority,
	}
	if user := middleware.CurrentUser(c); user != nil {
		task.AssignedByID = user.ID
	}

	created, err := h.store.CreateTask(task)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns tasks matching the query filters.
func (h *TaskHandler) List(c *fiber.Ctx) error {
	filter := &models.TaskFilter{
		AssignedToID: uint(c.QueryInt("assigned_to", 0)),
		Status:       c.Query("status"),
		Overdue:      c.QueryBool("overdue", false),
	}
	if filter.Status != "" && !models.ValidTaskStatus(filter.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status filter",
		})
	}

	tasks, err := h.store.ListTasks(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch tasks",
		})
	}
	return c.JSON(fiber.Map{"tasks": tasks, "count": len(tasks)})
}

// Get returns one task.
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	task, err := h.store.GetTask(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	return c.JSON(task)
}

// Update patches a task; moving status to done stamps CompletedAt.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	task, err := h.store.GetTask(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}

	var req models.TaskUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Status != nil {
		if !models.ValidTaskStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status",
			})
		}
		if *req.Status == models.TaskStatusDone && task.Status != models.TaskStatusDone {
			now := time.Now()
			task.CompletedAt = &now
		}
		if *req.Status != models.TaskStatusDone {
			task.CompletedAt = nil
		}
		task.Status = *req.Status
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssignedToID != nil {
		if _, err := h.store.GetUser(*req.AssignedToID); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignee not found",
			})
		}
		task.AssignedToID = *req.AssignedToID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Priority != nil {
		switch *req.Priority {
		case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
			task.Priority = *req.Priority
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid priority",
			})
		}
	}

	if err := h.store.UpdateTask(task); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}
	return c.JSON(task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.store.DeleteTask(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// AddComment appends a comment to a task's thread.
func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Body string `json:"body" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment body is required",
		})
	}

	comment := &models.TaskComment{TaskID: id, Body: req.Body}
	if user := middleware.CurrentUser(c); user != nil {
		comment.AuthorID = user.ID
	}

	created, err := h.store.CreateTaskComment(comment)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListComments returns a task's comment thread.
func (h *TaskHandler) ListComments(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.store.GetTask(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}

	comments, err := h.store.GetTaskComments(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch comments",
		})
	}
	return c.JSON(fiber.Map{"comments": comments, "count": len(comments)})
}
