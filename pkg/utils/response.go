package utils

// ResponseData is the envelope every REST handler answers with.
// Status is only used to pick the HTTP status and is not serialized.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}
