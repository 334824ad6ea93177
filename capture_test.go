package mipblur

import "testing"

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"level-25", "level-25"},
		{"frame.01", "frame.01"},
		{"soft focus", "soft_focus"},
		{"a/b\\c", "a_b_c"},
		{"blur!@#", "blur___"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"Mixed123", "Mixed123"},
	}
	for _, tt := range tests {
		got := sanitizeLabel(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		100, 50, 0, 255, // opaque: unchanged
		64, 32, 0, 128, // half alpha
		0, 0, 0, 0, // transparent
		200, 0, 0, 100, // clamped
	}
	img := unpremultiply(pixels, 2, 2)
	want := []byte{
		100, 50, 0, 255,
		127, 63, 0, 128,
		0, 0, 0, 0,
		255, 0, 0, 100,
	}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Errorf("Pix[%d] = %d, want %d", i, img.Pix[i], want[i])
		}
	}
}

func TestCaptureQueueAndDirDefault(t *testing.T) {
	pl := NewPipeline(&fakeDevice{})
	if pl.CaptureDir != "captures" {
		t.Errorf("CaptureDir = %q, want %q", pl.CaptureDir, "captures")
	}
	pl.Capture("a")
	pl.Capture("b")
	if len(pl.captureQueue) != 2 || pl.captureQueue[0] != "a" || pl.captureQueue[1] != "b" {
		t.Errorf("queue = %v, want [a b]", pl.captureQueue)
	}
}
