package errx

import (
	"errors"
	"net/http"
)

// Sentinels for the conversation loop and its collaborators. They are wrapped
// into AppError by the helpers below so callers can use errors.Is on either.
var (
	// ErrSchemaViolation covers tool calls with missing required arguments,
	// unrecognised tool names and unrecognised finish reasons.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrModelTruncated signals the model stopped because of a token limit.
	ErrModelTruncated = errors.New("model output truncated by token limit")

	// ErrContentFiltered signals the model omitted content due to a content filter.
	ErrContentFiltered = errors.New("model output removed by content filter")

	// ErrToolRoundsExceeded signals the tool loop hit its configured cap.
	ErrToolRoundsExceeded = errors.New("tool call rounds exceeded")

	// ErrCatalogNotFound signals the catalog does not recognise a product id.
	ErrCatalogNotFound = errors.New(CatalogNotFoundMessage)
)

// WrapSchema wraps a schema violation so it surfaces as a client-side error.
func WrapSchema(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(errors.Join(ErrSchemaViolation, err), http.StatusUnprocessableEntity, err.Error())
}

// WrapVectorIndex maps vector index failures to the unified AppError type.
func WrapVectorIndex(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, VectorIndexErrorMessage)
}

// WrapCatalog maps catalog API failures to the unified AppError type.
// A not-found is preserved so callers can drop the id and continue.
func WrapCatalog(err error) *AppError {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCatalogNotFound) {
		return New(err, http.StatusNotFound, CatalogNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, CatalogErrorMessage)
}
