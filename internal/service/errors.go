package service

import (
	"fmt"
	"net/http"
)

// Error codes exposed to API clients
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeInvalidCountry        = "INVALID_COUNTRY"
	CodeCityNotFoundInCountry = "CITY_NOT_FOUND_IN_COUNTRY"
	CodeDuplicateCity         = "DUPLICATE_CITY"
	CodeNotFound              = "NOT_FOUND"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// Error is a business failure with a stable code and the HTTP status it maps to.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError reports malformed input, keyed by JSON field name.
func NewValidationError(fields map[string]string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: "Invalid request",
		Fields:  fields,
	}
}

func errInvalidCountry(country string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidCountry,
		Message: fmt.Sprintf("Country %q not found. Please check the country name.", country),
	}
}

func errCityNotFoundInCountry(name, country string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeCityNotFoundInCountry,
		Message: fmt.Sprintf("City %q not found in %s. Please verify the city name.", name, country),
	}
}

func errDuplicateCity(name, country string) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeDuplicateCity,
		Message: fmt.Sprintf("City %q in %s already exists in the database.", name, country),
	}
}

// ErrCityNotFound is returned for every update, delete and lookup miss.
var ErrCityNotFound = &Error{
	Status:  http.StatusNotFound,
	Code:    CodeNotFound,
	Message: "City not found",
}
