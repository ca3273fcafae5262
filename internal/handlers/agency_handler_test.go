package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearbyRequiresCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "no coordinates", query: ""},
		{name: "missing longitude", query: "?lat=51.5"},
		{name: "missing latitude", query: "?lng=4.2"},
		{name: "non-numeric latitude", query: "?lat=north&lng=4.2"},
	}

	h := &AgencyHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/agencies/nearby"+tt.query, nil)
			w := httptest.NewRecorder()

			h.Nearby(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Latitude and longitude are required")
		})
	}
}
