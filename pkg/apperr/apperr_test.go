package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{EmptyResult("zzz", "nothing"), http.StatusNotFound},
		{UpstreamStatus(403, "blocked"), http.StatusForbidden},
		{UpstreamStatus(200, ""), http.StatusInternalServerError},
		{UpstreamTimeout("fetch", nil), http.StatusGatewayTimeout},
		{Storage("insert", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "error: %v", tc.err)
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := NotFound("content not found")
	wrapped := errors.Wrap(base, "loading record")

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestEmptyResultCarriesQuery(t *testing.T) {
	e := EmptyResult("one piece", `"one piece" is not uploaded yet`)
	assert.Equal(t, "one piece", e.Query)
	assert.Equal(t, KindEmptyResult, KindOf(e))
}
