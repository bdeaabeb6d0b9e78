package error

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenericErrors(t *testing.T) {
	cases := []struct {
		err    GenericError
		code   string
		status int
	}{
		{NotFoundError("missing"), "NOT_FOUND_ERROR", http.StatusNotFound},
		{ValidationError("bad page"), "VALIDATION_ERROR", http.StatusBadRequest},
		{ForbiddenError("nope"), "FORBIDDEN", http.StatusForbidden},
		{InternalServerError("boom"), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, c.err.ErrCode())
		assert.Equal(t, c.status, c.err.StatusCode())
		assert.NotEmpty(t, c.err.Error())
	}
}
