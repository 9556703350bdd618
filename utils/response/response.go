package response

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every service replies with
type Response struct {
	Data        interface{} `json:"data"`
	Message     string      `json:"message"`
	Success     bool        `json:"success"`
	Code        string      `json:"code"`
	Description string      `json:"description,omitempty"`
}

// PaginatedData is the data block of a paginated list
type PaginatedData struct {
	CurrentPage  int         `json:"currentPage"`
	PerPage      int         `json:"perPage"`
	TotalPages   int         `json:"totalPages"`
	TotalRecords int64       `json:"totalRecords"`
	Data         interface{} `json:"data"`
}

func successCode(status int) string {
	return fmt.Sprintf("S%d", status)
}

func errorCode(status int) string {
	return fmt.Sprintf("E%d", status)
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return SuccessWithMessage(c, "Success", data)
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Data:    data,
		Message: message,
		Success: true,
		Code:    successCode(fiber.StatusOK),
	})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "Resource created successfully"
	}
	return c.Status(fiber.StatusCreated).JSON(Response{
		Data:    data,
		Message: message,
		Success: true,
		Code:    successCode(fiber.StatusCreated),
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return ErrorWithDescription(c, statusCode, message, "")
}

// ErrorWithDescription returns an error response with a longer description
func ErrorWithDescription(c *fiber.Ctx, statusCode int, message string, description string) error {
	return c.Status(statusCode).JSON(Response{
		Message:     message,
		Success:     false,
		Code:        errorCode(statusCode),
		Description: description,
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message)
}

// ValidationError returns a 422 Unprocessable Entity response for request validation errors
func ValidationError(c *fiber.Ctx, err error) error {
	return ErrorWithDescription(c, fiber.StatusUnprocessableEntity, "Validation failed", err.Error())
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message)
}

// ServiceUnavailable returns a 503 Service Unavailable response
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message)
}

// Paginated returns a paginated response
func Paginated(c *fiber.Ctx, data interface{}, page, perPage, totalPages int, total int64) error {
	return Success(c, PaginatedData{
		CurrentPage:  page,
		PerPage:      perPage,
		TotalPages:   totalPages,
		TotalRecords: total,
		Data:         data,
	})
}

// ErrorHandler renders errors that escape handlers into the envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return Error(c, code, message)
}
