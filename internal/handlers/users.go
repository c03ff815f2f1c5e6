package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsefit/fitcrm-backend/internal/middleware"
	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// UserHandler manages staff profiles (admin only).
type UserHandler struct {
	store storage.Store
}

// NewUserHandler creates a new user handler.
func NewUserHandler(store storage.Store) *UserHandler {
	return &UserHandler{store: store}
}

// Create registers a new staff profile.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req models.UserRegistration
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

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user, err := h.store.CreateUser(&models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A user with this email already exists",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// List returns all staff profiles.
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.store.GetAllUsers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// Get returns one staff profile.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

// Update patches a staff profile (role and active flag included).
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleTrainer {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid role",
			})
		}
		user.Role = *req.Role
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = models.NormalizePhone(*req.Phone)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.store.UpdateUser(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}
	return c.JSON(user)
}

// Delete removes a staff profile. Self-deletion is rejected.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if current := middleware.CurrentUser(c); current != nil && current.ID == id {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot delete your own account",
		})
	}
	if err := h.store.DeleteUser(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
