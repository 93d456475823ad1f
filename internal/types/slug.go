package types

// Slug is a machine-readable tag on every API response so clients can
// branch without parsing error text.
type Slug string

const (
	SuccessSlug      Slug = "success"
	ErrorSlug        Slug = "error"
	InvalidInputSlug Slug = "invalid-input"
	ConflictSlug     Slug = "conflict"
	InvalidStateSlug Slug = "invalid-state"
	NotFoundSlug     Slug = "not-found"
	ForbiddenSlug    Slug = "forbidden"
	UnavailableSlug  Slug = "service-unavailable"
	ServerErrorSlug  Slug = "server-error"
)

// SlugResponse is the response envelope for the API
type SlugResponse struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// ErrInvalidInput returns a SlugResponse with the InvalidInputSlug and the error message
func ErrInvalidInput(msg string) SlugResponse {
	return SlugResponse{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

// ErrServer returns a SlugResponse with the ServerErrorSlug and the error message
func ErrServer(msg string) SlugResponse {
	return SlugResponse{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}

// Success returns a SlugResponse with the SuccessSlug and the data
func Success(data interface{}) SlugResponse {
	return SlugResponse{
		Slug: SuccessSlug,
		Data: data,
	}
}

// SlugFor maps an error kind to its response slug.
func SlugFor(kind ErrorKind) Slug {
	switch kind {
	case KindBadRequest:
		return InvalidInputSlug
	case KindNotFound:
		return NotFoundSlug
	case KindConflict:
		return ConflictSlug
	case KindInvalidState:
		return InvalidStateSlug
	case KindForbidden:
		return ForbiddenSlug
	case KindServiceUnavailable:
		return UnavailableSlug
	default:
		return ServerErrorSlug
	}
}
