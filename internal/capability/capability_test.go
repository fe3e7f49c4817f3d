package capability

import (
	"os"
	"testing"

	"github.com/Mr-Dark-debug/cubespin/internal/frame"
)

func TestAvailable(t *testing.T) {
	tests := []struct {
		name  string
		probe Probe
		want  bool
	}{
		{"nil", nil, false},
		{"both", Static{Frame: true, Transform: true}, true},
		{"no frames", Static{Frame: false, Transform: true}, false},
		{"no transforms", Static{Frame: true, Transform: false}, false},
		{"neither", Static{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Available(tt.probe); got != tt.want {
				t.Errorf("Available = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderCheck(t *testing.T) {
	if !RenderCheck() {
		t.Error("expected the projector to pass its own check")
	}
}

func TestTerminalWithoutScheduler(t *testing.T) {
	p := Terminal{Fd: os.Stdout.Fd()}
	if p.AnimationFrame() {
		t.Error("expected no frame support without a scheduler")
	}
	if Available(p) {
		t.Error("expected terminal without scheduler to be unavailable")
	}
}

func TestTerminalNotATTY(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer f.Close()

	p := Terminal{Fd: f.Fd(), Scheduler: frame.NewLoop()}
	if !p.AnimationFrame() {
		t.Error("expected frame support with a scheduler")
	}
	if p.Transform3D() {
		t.Error("a regular file is not a terminal")
	}
}
