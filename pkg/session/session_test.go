package session

import (
	"testing"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"interactive", ModePathTraced, false},
		{"realtime", ModeRealTime, false},
		{"bogus", "", true},
		{"", "", true},
		{"Interactive", "", true}, // case-sensitive
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) = %v, want error", tt.in, got)
			} else if errors.GetCode(err) != errors.ErrCodeUnrecognizedValue {
				t.Errorf("ParseMode(%q) code = %v", tt.in, errors.GetCode(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModePathTraced, ModeRealTime} {
		got, err := ParseMode(m.WireValue())
		if err != nil {
			t.Errorf("ParseMode(%q): %v", m.WireValue(), err)
		}
		if got != m {
			t.Errorf("round trip of %v = %v", m, got)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	sess := New()
	if sess.Stage() != nil {
		t.Error("new session should have no active stage")
	}
	if sess.Mode() != ModeRealTime {
		t.Errorf("default mode = %v, want %v", sess.Mode(), ModeRealTime)
	}
}

func TestOpenStageReturnsDisplaced(t *testing.T) {
	sess := New()
	first := scene.NewStage("/tmp/a.usda", scene.UpAxisY)
	second := scene.NewStage("/tmp/b.usda", scene.UpAxisZ)

	if prev := sess.OpenStage(first); prev != nil {
		t.Errorf("first OpenStage displaced %v, want nil", prev)
	}
	if prev := sess.OpenStage(second); prev != first {
		t.Error("second OpenStage should return the first stage for disposal")
	}
	if sess.Stage() != second {
		t.Error("active stage should be the most recently opened")
	}
}

func TestSetModeIsIdempotentAndStageIndependent(t *testing.T) {
	sess := New()
	st := scene.NewStage("/tmp/scene.usda", scene.UpAxisY)
	sess.OpenStage(st)

	sess.SetMode(ModePathTraced)
	sess.SetMode(ModePathTraced)
	if sess.Mode() != ModePathTraced {
		t.Errorf("mode = %v", sess.Mode())
	}

	sess.SetMode(ModeRealTime)
	if sess.Mode() != ModeRealTime {
		t.Errorf("mode = %v", sess.Mode())
	}

	// Mode changes never touch the stage.
	if sess.Stage() != st {
		t.Error("SetMode must not modify the active stage")
	}
}

func TestSnapshotAtomicView(t *testing.T) {
	sess := New()
	st := scene.NewStage("/tmp/scene.usda", scene.UpAxisY)
	sess.OpenStage(st)
	sess.SetMode(ModePathTraced)

	gotStage, gotMode := sess.Snapshot()
	if gotStage != st || gotMode != ModePathTraced {
		t.Errorf("Snapshot = (%v, %v)", gotStage, gotMode)
	}

	// A later swap does not invalidate the snapshot the caller holds.
	sess.OpenStage(scene.NewStage("/tmp/other.usda", scene.UpAxisY))
	if gotStage.Path() != "/tmp/scene.usda" {
		t.Error("snapshot should keep referring to the stage at snapshot time")
	}
}
