package apierror

// Error type URIs following the urn:restock:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:restock:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:restock:error:not_found"

	// TypeConflict indicates a concurrent analytics write won (409)
	TypeConflict = "urn:restock:error:conflict"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:restock:error:rate_limit"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:restock:error:internal"

	// TypeUnavailable indicates a dependency such as the database is down (503)
	TypeUnavailable = "urn:restock:error:unavailable"

	// TypeBadRequest indicates a malformed request body or query (400)
	TypeBadRequest = "urn:restock:error:bad_request"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation  = "Validation Error"
	TitleNotFound    = "Resource Not Found"
	TitleConflict    = "Concurrent Update"
	TitleRateLimit   = "Rate Limit Exceeded"
	TitleInternal    = "Internal Server Error"
	TitleUnavailable = "Service Unavailable"
	TitleBadRequest  = "Bad Request"
)
