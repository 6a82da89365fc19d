package handler

import (
	"net/http"

	"membership-bot/internal/dto"

	"github.com/labstack/echo/v4"
)

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "healthy",
		Bot:    "running",
	})
}
