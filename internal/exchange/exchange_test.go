package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ccdash/internal/currency"
)

func TestFetchINR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","date":"2025-09-01","rates":{"INR":87.5,"EUR":0.92}}`))
	}))
	defer srv.Close()

	rate, fallback := NewClientWithURL(srv.URL).FetchINR(context.Background())
	assert.False(t, fallback)
	assert.Equal(t, 87.5, rate)
}

func TestFetchINRFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
		{"missing INR", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92}}`))
		}},
		{"non-positive rate", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"base":"USD","rates":{"INR":0}}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rate, fallback := NewClientWithURL(srv.URL).FetchINR(context.Background())
			assert.True(t, fallback)
			assert.Equal(t, float64(currency.DefaultRate), rate)
		})
	}
}

func TestFetchINRUnreachable(t *testing.T) {
	rate, fallback := NewClientWithURL("http://127.0.0.1:1/rates").FetchINR(context.Background())
	assert.True(t, fallback)
	assert.Equal(t, float64(currency.DefaultRate), rate)
}
