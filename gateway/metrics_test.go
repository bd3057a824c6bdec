package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestsAreCountedByOutcome(t *testing.T) {
	failed := requestsTotal.WithLabelValues(http.MethodPut, "5xx")
	before := testutil.ToFloat64(failed)

	c, _, _, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPut, Path: "/projects/1", Body: map[string]string{}})
	assert.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestTransportFailuresAreCounted(t *testing.T) {
	failed := requestsTotal.WithLabelValues(http.MethodDelete, "transport_error")
	before := testutil.ToFloat64(failed)

	c := New("http://127.0.0.1:1/api", &fakeTokens{}, &fakeNav{})
	_, err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/projects/1"})
	assert.ErrorAs(t, err, new(*Error))

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}
