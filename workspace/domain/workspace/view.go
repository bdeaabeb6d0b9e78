package workspace

import (
	"errors"
	"strings"
)

// RenderState is the state of the workspace list screen.
type RenderState string

const (
	StateLoading     RenderState = "loading"
	StateForbidden   RenderState = "forbidden"
	StateErrorBanner RenderState = "error_banner"
	StateEmpty       RenderState = "empty"
	StatePopulated   RenderState = "populated"
)

// NoAccessMessage is shown both for a forbidden fetch and for an empty result.
const NoAccessMessage = "You do not have access to any workspaces"

// ListView is everything the card grid needs to render.
type ListView struct {
	State      RenderState `json:"state"`
	Message    string      `json:"message,omitempty"`
	Banner     string      `json:"banner,omitempty"`
	Workspaces []ViewModel `json:"workspaces"`
	Page       int         `json:"page,omitempty"`
	PageSize   int         `json:"page_size,omitempty"`
	Total      int64       `json:"total,omitempty"`
	Sort       string      `json:"sort,omitempty"`
}

// FetchErrorKind classifies why a page could not be fetched.
type FetchErrorKind int

const (
	FetchErrorOther FetchErrorKind = iota
	FetchErrorForbidden
)

func (k FetchErrorKind) String() string {
	if k == FetchErrorForbidden {
		return "forbidden"
	}
	return "other"
}

// FetchError is the structured failure a pagination source reports.
type FetchError struct {
	Kind    FetchErrorKind
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

// forbiddenMarker is how upstreams that only carry a message signal HTTP 403.
const forbiddenMarker = "403"

// NewFetchErrorFromMessage builds a FetchError for an upstream that reports only
// a message. This is the one place a message is inspected for the 403 marker.
func NewFetchErrorFromMessage(msg string) *FetchError {
	kind := FetchErrorOther
	status := 0
	if strings.Contains(msg, forbiddenMarker) {
		kind = FetchErrorForbidden
		status = 403
	}
	return &FetchError{Kind: kind, Status: status, Message: msg}
}

// ClassifyFetchError returns the kind of err. Errors that are not a FetchError
// classify as other.
func ClassifyFetchError(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FetchErrorOther
}
