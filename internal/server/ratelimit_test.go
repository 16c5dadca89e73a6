package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_ClientIP(t *testing.T) {
	tests := []struct {
		name           string
		trustForwarded bool
		remoteAddr     string
		forwarded      []string
		want           string
	}{
		{name: "remote addr", remoteAddr: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "forwarded ignored locally", remoteAddr: "10.0.0.1:5000", forwarded: []string{"1.2.3.4"}, want: "10.0.0.1"},
		{name: "single entry", trustForwarded: true, remoteAddr: "10.0.0.1:5000", forwarded: []string{"203.0.113.7:51234"}, want: "203.0.113.7"},
		{name: "client supplied prefix", trustForwarded: true, remoteAddr: "10.0.0.1:5000", forwarded: []string{"1.2.3.4, 5.6.7.8, 203.0.113.7:51234"}, want: "203.0.113.7"},
		{name: "repeated header", trustForwarded: true, remoteAddr: "10.0.0.1:5000", forwarded: []string{"1.2.3.4", "203.0.113.7"}, want: "203.0.113.7"},
		{name: "ipv6 with port", trustForwarded: true, remoteAddr: "10.0.0.1:5000", forwarded: []string{"[2001:db8::1]:443"}, want: "2001:db8::1"},
		{name: "empty entry falls back", trustForwarded: true, remoteAddr: "10.0.0.1:5000", forwarded: []string{"1.2.3.4, "}, want: "10.0.0.1"},
		{name: "no header", trustForwarded: true, remoteAddr: "10.0.0.1:5000", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(1, 1, tt.trustForwarded)
			r := httptest.NewRequest(http.MethodGet, "/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for _, v := range tt.forwarded {
				r.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, rl.clientIP(r))
		})
	}
}

func TestRateLimiter_SpoofedForwardedForStillLimited(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 1, true)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	allowed := 0
	for i := range 20 {
		r := httptest.NewRequest(http.MethodGet, "/login", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d, 203.0.113.7:4000", i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code == http.StatusNoContent {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, 1, false)
	rl.getLimiter("10.0.0.1")

	rl.sweep(time.Now())
	assert.Len(t, rl.limiters, 1)

	rl.sweep(time.Now().Add(limiterIdleTimeout + time.Second))
	assert.Empty(t, rl.limiters)
}
