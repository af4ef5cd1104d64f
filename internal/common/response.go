package common

import (
	"encoding/json"
	"net/http"
)

type ResponseType string

const (
	ResponseTypeObject ResponseType = "object"
	ResponseTypeArray  ResponseType = "array"
)

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Response is the default response object
type Response struct {
	ResponseType ResponseType `json:"response_type"`
	Object       any          `json:"object,omitempty"`
	Array        any          `json:"array,omitempty"`
	Meta         any          `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func write(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)

	return nil
}

func Body(w http.ResponseWriter, body any, meta any) error {
	return write(w, http.StatusOK, &Response{
		ResponseType: ResponseTypeObject,
		Object:       body,
		Meta:         meta,
	})
}

func BodyMultiple(w http.ResponseWriter, body any, meta any) error {
	return write(w, http.StatusOK, &Response{
		ResponseType: ResponseTypeArray,
		Array:        body,
		Meta:         meta,
	})
}

// Error replies with the raw error message, which clients show as is.
func Error(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}

	write(w, status, &ErrorResponse{Error: msg})
}
