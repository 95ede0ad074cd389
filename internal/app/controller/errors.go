package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/service"
	apperrors "github.com/ikkim/atelier-catalog/internal/errors"
	"github.com/ikkim/atelier-catalog/pkg/logger"
)

var notFoundCodes = []struct {
	err  error
	code string
}{
	{service.ErrCategoryNotFound, apperrors.CategoryNotFound},
	{service.ErrProductNotFound, apperrors.ProductNotFound},
	{service.ErrParentProductNotFound, apperrors.ParentProductNotFound},
	{service.ErrColorNotFound, apperrors.ColorNotFound},
	{service.ErrSizeNotFound, apperrors.SizeNotFound},
	{service.ErrSizeGroupNotFound, apperrors.SizeGroupNotFound},
	{service.ErrPageOutOfRange, apperrors.PageNotFound},
}

var validationCodes = []struct {
	kind error
	code string
}{
	{model.ErrInvalidPrice, apperrors.ValidationInvalidPrice},
	{model.ErrInvalidDiscountedPrice, apperrors.ValidationInvalidDiscount},
	{model.ErrInvalidHexCode, apperrors.ValidationInvalidHexCode},
	{model.ErrInvalidQuantity, apperrors.ValidationInvalidRange},
	{model.ErrFieldRequired, apperrors.ValidationRequired},
	{model.ErrFieldTooLong, apperrors.ValidationTooLong},
	{service.ErrCategoryCycle, apperrors.ValidationCategoryCycle},
}

func isDuplicate(err error) bool {
	return errors.Is(err, service.ErrDuplicateName) ||
		errors.Is(err, service.ErrDuplicateSlug) ||
		errors.Is(err, service.ErrDuplicateStyle)
}

// respondError maps a service error onto the HTTP error body. context names
// the failed operation for database errors that reach this far.
func respondError(c *gin.Context, log *logger.Logger, err error, context string) {
	for _, nf := range notFoundCodes {
		if errors.Is(err, nf.err) {
			log.Warn("Resource not found", map[string]interface{}{
				"operation": context,
				"error":     err.Error(),
			})
			apperrors.NotFound(c, nf.code, err.Error())
			return
		}
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		log.Warn("Validation failed", map[string]interface{}{
			"operation": context,
			"field":     ve.Field,
			"error":     ve.Message,
		})
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, apperrors.ErrorResponse{
				Error:   apperrors.ResourceAlreadyExists,
				Message: ve.Message,
				Field:   ve.Field,
			})
			return
		}
		code := apperrors.ValidationInvalidInput
		for _, vc := range validationCodes {
			if errors.Is(err, vc.kind) {
				code = vc.code
				break
			}
		}
		apperrors.RespondWithFieldError(c, code, ve.Field, ve.Message)
		return
	}

	log.Error("Request failed", err, map[string]interface{}{
		"operation": context,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
}

// parseIDParam reads a numeric path parameter, replying 400 when it is not
// one.
func parseIDParam(c *gin.Context, log *logger.Logger, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
