package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/pkg/validator"
)

// Response is the uniform envelope every endpoint returns
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string, errors interface{}) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  errors,
	})
}

// respondServiceError maps service-layer errors onto the HTTP error taxonomy
func respondServiceError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *models.StateConflictError:
		respondError(c, http.StatusBadRequest, e.Error(), nil)
		return
	case *models.MissingFieldsError:
		respondError(c, http.StatusBadRequest, "Missing required fields", gin.H{"missing_fields": e.Fields})
		return
	case *services.RateLimitError:
		c.Header("Retry-After", e.RetryAfter.UTC().Format(http.TimeFormat))
		respondError(c, http.StatusTooManyRequests, e.Message, nil)
		return
	}

	switch err {
	case services.ErrIdentifierRequired,
		services.ErrIdentifierTaken,
		services.ErrInvalidExperience,
		services.ErrInvalidPlan,
		services.ErrUnknownCategory,
		services.ErrUnknownType,
		services.ErrUnknownArea,
		services.ErrTypeOutsideCategories,
		services.ErrSignatureMismatch,
		services.ErrAlreadyProcessed,
		services.ErrAlreadyActive,
		services.ErrReasonRequired,
		services.ErrAlreadyDecided,
		services.ErrNotACaptain,
		validator.ErrEmptyPhone, validator.ErrInvalidFormat, validator.ErrInvalidLength, validator.ErrInvalidPrefix,
		validator.ErrEmptyEmail, validator.ErrInvalidEmail:
		respondError(c, http.StatusBadRequest, err.Error(), nil)

	case services.ErrInvalidCredentials, services.ErrInvalidRefreshToken:
		respondError(c, http.StatusUnauthorized, err.Error(), nil)

	case services.ErrAccountInactive:
		respondError(c, http.StatusForbidden, err.Error(), gin.H{"requires_payment": true})

	case services.ErrCaptainNotVerified, services.ErrProviderNotVerified:
		respondError(c, http.StatusForbidden, err.Error(), nil)

	case services.ErrApplicationNotFound,
		services.ErrOrderNotFound,
		services.ErrCaptainNotFound,
		services.ErrProfileNotFound,
		services.ErrServiceNotFound,
		services.ErrAnswerNotFound,
		database.ErrNotFound:
		respondError(c, http.StatusNotFound, err.Error(), nil)

	case services.ErrGatewayUnavailable, services.ErrAIUnavailable:
		respondError(c, http.StatusBadGateway, err.Error(), nil)

	case database.ErrStateChanged:
		respondError(c, http.StatusBadRequest, "resource changed concurrently, please retry", nil)

	default:
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
