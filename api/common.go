package api

import (
	"errors"
	"net/http"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Messages
// are passed through: this surface is diagnostic, not hardened.
func respondError(c *gin.Context, err error) {
	var (
		validationErr  domain.ValidationError
		stateErr       domain.InvalidStateError
		configErr      domain.ConfigurationError
		gatewayErr     domain.GatewayError
		uploadErr      domain.UploadError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &stateErr), errors.Is(err, domain.ErrTokenInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &configErr), errors.As(err, &gatewayErr), errors.As(err, &uploadErr):
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
