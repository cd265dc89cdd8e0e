package jobstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rlei-miris/kit-render-service/pkg/camera"
)

func sampleRecord(id string, created time.Time) *Record {
	return &Record{
		JobID:          id,
		CameraName:     "camera_0",
		StagePath:      "/tmp/scene.usda",
		Mode:           "realtime",
		ColorImagePath: "/out/" + id + "/rgb_0000.png",
		DepthImagePath: "/out/" + id + "/distance_to_image_plane_0000.png",
		DepthArrayPath: "/out/" + id + "/distance_to_image_plane_0000.npy",
		Camera: camera.Info{
			FocalLength:        15,
			HorizontalAperture: 20,
			VerticalAperture:   20,
		},
		CreatedAt: created,
	}
}

// storeUnderTest runs the shared Store contract tests against a backend.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Missing record.
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	// Round trip.
	base := time.Now().UTC().Truncate(time.Millisecond)
	rec := sampleRecord("job-a", base)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "job-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CameraName != rec.CameraName || got.ColorImagePath != rec.ColorImagePath {
		t.Errorf("Get returned %+v", got)
	}
	if got.Camera.FocalLength != 15 {
		t.Errorf("camera info not preserved: %+v", got.Camera)
	}

	// Overwrite by same ID.
	rec.Mode = "interactive"
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save (overwrite): %v", err)
	}
	got, err = store.Get(ctx, "job-a")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if got.Mode != "interactive" {
		t.Errorf("Mode after overwrite = %q", got.Mode)
	}

	// List: newest first, honoring limit.
	for i := 0; i < 5; i++ {
		r := sampleRecord(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i+1)*time.Second))
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save job-%d: %v", i, err)
		}
	}
	records, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List returned %d records, want 3", len(records))
	}
	if records[0].JobID != "job-4" {
		t.Errorf("List[0] = %s, want job-4 (newest first)", records[0].JobID)
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Error("List is not ordered newest first")
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeUnderTest(t, store)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()
	storeUnderTest(t, store)
}

func TestMemoryStoreSaveCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := sampleRecord("job-x", time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's record must not affect the stored copy.
	rec.CameraName = "mutated"
	got, err := store.Get(ctx, "job-x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CameraName != "camera_0" {
		t.Errorf("stored record was aliased: CameraName = %q", got.CameraName)
	}
}

func TestFileStoreListDefaultLimit(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, sampleRecord("only", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("List with default limit returned %d records", len(records))
	}
}
