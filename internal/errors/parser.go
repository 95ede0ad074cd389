package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-facing code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a database error into a client-facing code and message
// without leaking driver details. context names the operation ("create
// color", "delete category") and only shapes the fallback message.
// PostgreSQL and SQLite wordings are both recognised.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "internal server error",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error())
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint"):
		return parseDuplicateKeyError(errStr)

	case strings.Contains(errStrLower, "foreign key constraint"):
		return parseForeignKeyError(errStr)

	case strings.Contains(errStrLower, "not-null constraint") ||
		strings.Contains(errStrLower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}

	case strings.Contains(errStrLower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidInput, Message: "the input is invalid"}

	case strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout"):
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "the data store is unavailable, please retry later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "an entry with the same URL slug already exists"}
	case strings.Contains(errLower, "hex_code"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "a color with this hex code already exists"}
	case strings.Contains(errLower, "idx_parent_style") || strings.Contains(errLower, "style"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "this parent product already has a variant with that style"}
	case strings.Contains(errLower, "name"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "an entry with this name already exists"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "the entry already exists",
	}
}

func parseForeignKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "the entry is still referenced and cannot be deleted",
		}
	}
	switch {
	case strings.Contains(errLower, "category_id"):
		return ErrorInfo{Code: CategoryNotFound, Message: "the referenced category does not exist"}
	case strings.Contains(errLower, "color_id"):
		return ErrorInfo{Code: ColorNotFound, Message: "the referenced color does not exist"}
	case strings.Contains(errLower, "size_id"):
		return ErrorInfo{Code: SizeNotFound, Message: "the referenced size does not exist"}
	case strings.Contains(errLower, "parent_id"):
		return ErrorInfo{Code: ParentProductNotFound, Message: "the referenced parent product does not exist"}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "a referenced entry does not exist",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "category"):
		return "category not found"
	case strings.Contains(contextLower, "parent"):
		return "parent product not found"
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "color"):
		return "color not found"
	case strings.Contains(contextLower, "size"):
		return "size not found"
	}
	return "the requested entry was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create the entry, please retry later"
	case strings.Contains(contextLower, "update"):
		return "failed to update the entry, please retry later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete the entry, please retry later"
	}
	return "internal server error, please retry later"
}

// ParseAndRespond parses err and writes it with statusCode. A duplicate or
// dangling reference is reported as 409 regardless of statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	switch info.Code {
	case ResourceAlreadyExists, ResourceConflict:
		statusCode = http.StatusConflict
	}
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
