package postgrest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// UniqueViolationCode is the SQLSTATE PostgREST relays when a unique constraint rejects an insert.
const UniqueViolationCode = "23505"

// APIError is a non-2xx reply from the table service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: status %d: %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("postgrest: status %d: %s", e.Status, e.Message)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

func IsUniqueViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == UniqueViolationCode || apiErr.Status == http.StatusConflict
}
