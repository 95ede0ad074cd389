package errors

// Error codes returned in the "error" field of every error body.
// Format: AREA_DETAIL. Clients map on the code, never on the message.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID       = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat   = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange    = "VALIDATION_INVALID_RANGE"
	ValidationTooLong         = "VALIDATION_TOO_LONG"
	ValidationRequired        = "VALIDATION_REQUIRED"
	ValidationInvalidPrice    = "VALIDATION_INVALID_PRICE"
	ValidationInvalidDiscount = "VALIDATION_INVALID_DISCOUNTED_PRICE"
	ValidationInvalidHexCode  = "VALIDATION_INVALID_HEX_CODE"
	ValidationCategoryCycle   = "VALIDATION_CATEGORY_CYCLE"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATALOG_) ====================
	CategoryNotFound      = "CATEGORY_NOT_FOUND"
	ProductNotFound       = "PRODUCT_NOT_FOUND"
	ParentProductNotFound = "PARENT_PRODUCT_NOT_FOUND"
	ColorNotFound         = "COLOR_NOT_FOUND"
	SizeNotFound          = "SIZE_NOT_FOUND"
	SizeGroupNotFound     = "SIZE_GROUP_NOT_FOUND"
	PageNotFound          = "PAGE_NOT_FOUND"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalCacheError    = "INTERNAL_CACHE_ERROR"
)
