package http

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

const (
	jsonContentType = "application/json; charset=utf-8"
	htmlContentType = "text/html; charset=utf-8"
)

// apiResponse is the single response shape every handler returns: a status code, a
// content type, and a pre-serialised body. Keeping serialisation in the handlers keeps
// the wire format identical to what the front end already consumes.
type apiResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

type errorBody struct {
	Error string `json:"error"`
}

type authErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type successBody struct {
	Success bool `json:"success"`
}

type successIDBody struct {
	Success bool `json:"success"`
	ID      uint `json:"id"`
}

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func newJSONResponse(status int, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "encoding response body")
	}

	return &apiResponse{Status: status, ContentType: jsonContentType, Body: body}, nil
}

// errorResponse builds the JSON error body every failure path returns.
func errorResponse(status int, message string) *apiResponse {
	body, _ := json.Marshal(errorBody{Error: message})
	return &apiResponse{Status: status, ContentType: jsonContentType, Body: body}
}

func newHTMLResponse(status int, body []byte) *apiResponse {
	return &apiResponse{Status: status, ContentType: htmlContentType, Body: body}
}
