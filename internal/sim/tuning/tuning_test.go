package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsCarryTunedValues(t *testing.T) {
	d := Default()
	if d.Physics.GravityY != -3.8 {
		t.Errorf("gravity = %v", d.Physics.GravityY)
	}
	if d.Physics.HoleDropThreshold != 1.0 {
		t.Errorf("hole drop = %v", d.Physics.HoleDropThreshold)
	}
	if d.Physics.ContactThreshold != 0.6 {
		t.Errorf("contact threshold = %v", d.Physics.ContactThreshold)
	}
	if d.Physics.GroundBuffer != 0.1 {
		t.Errorf("ground buffer = %v", d.Physics.GroundBuffer)
	}
	if d.Physics.MaxClimbAngleDeg != 45 || d.Physics.SlideAngleDeg != 30 {
		t.Errorf("angles = %v/%v", d.Physics.MaxClimbAngleDeg, d.Physics.SlideAngleDeg)
	}
}

func TestLoadPartialOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	body := "physics:\n  gravity_y: -1.62\nchunks:\n  load_radius: 3\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Physics.GravityY != -1.62 {
		t.Errorf("override lost: %v", got.Physics.GravityY)
	}
	if got.Chunks.LoadRadius != 3 {
		t.Errorf("override lost: %v", got.Chunks.LoadRadius)
	}
	// Untouched fields keep defaults.
	if got.Physics.HoleDropThreshold != 1.0 {
		t.Errorf("default lost: %v", got.Physics.HoleDropThreshold)
	}
	if got.Chunks.Size != 50 {
		t.Errorf("default lost: %v", got.Chunks.Size)
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("physics: [what"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected parse error")
	}
}
