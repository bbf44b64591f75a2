package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDetect_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ipAPIResponse{
			Status:   "success",
			Lat:      51.5074,
			Lon:      -0.1278,
			City:     "London",
			Country:  "United Kingdom",
			Timezone: "Europe/London",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	// Override the package-level URL for testing.
	origURL := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = origURL }()

	loc, err := Detect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Latitude != 51.5074 {
		t.Errorf("Latitude = %v, want %v", loc.Latitude, 51.5074)
	}
	if loc.Longitude != -0.1278 {
		t.Errorf("Longitude = %v, want %v", loc.Longitude, -0.1278)
	}
	if loc.City != "London" {
		t.Errorf("City = %q, want %q", loc.City, "London")
	}
	if loc.Country != "United Kingdom" {
		t.Errorf("Country = %q, want %q", loc.Country, "United Kingdom")
	}
	if loc.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want %q", loc.Timezone, "Europe/London")
	}
}

func TestDetect_APIFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ipAPIResponse{
			Status:  "fail",
			Message: "reserved range",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	origURL := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = origURL }()

	_, err := Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for failed status, got nil")
	}
	if !strings.Contains(err.Error(), "reserved range") {
		t.Errorf("error should contain message, got: %v", err)
	}
}

func TestDetect_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	origURL := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = origURL }()

	_, err := Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should mention 500, got: %v", err)
	}
}

func TestDetect_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	origURL := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = origURL }()

	_, err := Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decode, got: %v", err)
	}
}

func TestDetect_ConnectionRefused(t *testing.T) {
	origURL := geoAPIURL
	geoAPIURL = "http://127.0.0.1:1" // nothing listening
	defer func() { geoAPIURL = origURL }()

	_, err := Detect(context.Background())
	if err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

// ---------------------------------------------------------------------------
// Location.Equal
// ---------------------------------------------------------------------------

func TestLocationEqual(t *testing.T) {
	london := Location{Latitude: 51.5, Longitude: -0.1, City: "London", Country: "UK"}
	paris := Location{Latitude: 48.9, Longitude: 2.4, City: "Paris", Country: "FR"}

	if !london.Equal(london) {
		t.Error("Equal() on identical locations = false")
	}
	if london.Equal(paris) {
		t.Error("Equal() on different locations = true")
	}
}

// ---------------------------------------------------------------------------
// Watcher
// ---------------------------------------------------------------------------

func TestWatcher_ReportsChangeOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := ipAPIResponse{Status: "success", Lat: 51.5, Lon: -0.1, City: "London", Country: "UK"}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	origURL := geoAPIURL
	geoAPIURL = server.URL
	defer func() { geoAPIURL = origURL }()

	w := NewWatcher(10*time.Millisecond, zerolog.Nop())
	w.Start(context.Background())
	defer w.Stop()

	select {
	case loc := <-w.Updates():
		if loc.City != "London" {
			t.Errorf("City = %q, want London", loc.City)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first location update")
	}

	// Same location on every poll: no further updates should arrive.
	for calls.Load() < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case loc := <-w.Updates():
		t.Errorf("unexpected update for unchanged location: %+v", loc)
	default:
	}
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := NewWatcher(time.Minute, zerolog.Nop())
	w.Stop() // must not panic
}
