package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rlei-miris/kit-render-service/pkg/render"
)

func TestMain(m *testing.M) {
	retryDelay = time.Millisecond
	m.Run()
}

func TestOpenStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/open_stage" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["usd_file_location"] != "/tmp/scene.usda" {
			t.Errorf("usd_file_location = %q", body["usd_file_location"])
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "opened stage /tmp/scene.usda"})
	}))
	defer srv.Close()

	msg, err := New(srv.URL).OpenStage(context.Background(), "/tmp/scene.usda")
	if err != nil {
		t.Fatalf("OpenStage() failed: %v", err)
	}
	if msg != "opened stage /tmp/scene.usda" {
		t.Errorf("message = %q", msg)
	}
}

func TestRenderDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req render.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.CameraName != "cam0" {
			t.Errorf("camera_name = %q", req.CameraName)
		}
		json.NewEncoder(w).Encode(render.Response{
			JobID:          "job-1",
			ColorImagePath: "/out/job-1/rgb_0000.png",
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Render(context.Background(), render.Request{CameraName: "cam0"})
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if resp.JobID != "job-1" || resp.ColorImagePath != "/out/job-1/rgb_0000.png" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCodedErrorSurfacesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":  "PRECONDITION_FAILED",
			"error": "no active stage; call open_stage first",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Render(context.Background(), render.Request{CameraName: "cam0"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != "PRECONDITION_FAILED" || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestTransientStatusIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	if _, err := New(srv.URL).ListJobs(context.Background()); err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRenderIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Render(context.Background(), render.Request{}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (render must not be resubmitted)", calls.Load())
	}
}

func TestConnectionFailure(t *testing.T) {
	c := New("http://127.0.0.1:1")
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
