package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInternalInconsistent, http.StatusInternalServerError},
	}
	for _, c := range cases {
		err := New(c.kind, "op", nil)
		assert.Equal(t, c.want, HTTPStatus(err))
	}
}

func TestHTTPStatusUnwrapped(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestIs(t *testing.T) {
	err := New(KindForbidden, "stream.token", errors.New("unknown token"))
	assert.True(t, Is(err, KindForbidden))
	assert.False(t, Is(err, KindNotFound))

	wrapped := errors.New("outer")
	assert.False(t, Is(wrapped, KindForbidden))
}

func TestErrorString(t *testing.T) {
	err := New(KindNotFound, "reader.get_message", errors.New("wrong message_id"))
	assert.Equal(t, "reader.get_message: wrong message_id", err.Error())

	bare := New(KindBadRequest, "range.parse", nil)
	assert.Equal(t, "range.parse", bare.Error())
}
