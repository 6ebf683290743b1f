package serverutils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required,max=4000"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(sampleRequest{SessionId: "abc-123", Message: "hello"})
	assert.NoError(t, err)

	err = ValidateRequest(sampleRequest{Message: "hello"})
	assert.Error(t, err)

	apiErr, ok := err.(*ApiError)
	assert.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Code)
	assert.Contains(t, apiErr.Message, "SessionId")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/api-error", func(ctx *fiber.Ctx) error {
		return NewApiError(fiber.StatusForbidden, "Admin access required")
	})
	app.Get("/plain-error", func(ctx *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("Success", fiber.Map{"value": 1}))
	})

	res, err := app.Test(httptest.NewRequest("GET", "/api-error", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	var body Response
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Admin access required", body.Message)

	res, err = app.Test(httptest.NewRequest("GET", "/plain-error", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)
}
