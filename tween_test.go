package mipblur

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestBlurTweenReachesTarget(t *testing.T) {
	p := newTestPass(t, &fakeDevice{}, 0)
	tw := NewBlurTween(p, MaxBlurLevel, 1.0, ease.Linear)

	tw.Update(0.5)
	if got := p.BlurLevel(); got != 25 {
		t.Errorf("BlurLevel at half = %d, want 25", got)
	}
	if tw.Done {
		t.Fatal("tween finished early")
	}
	tw.Update(0.5)
	if !tw.Done {
		t.Fatal("expected Done after full duration")
	}
	if got := p.BlurLevel(); got != MaxBlurLevel {
		t.Errorf("BlurLevel = %d, want %d", got, MaxBlurLevel)
	}

	// Further updates are ignored.
	p.SetBlurLevel(3)
	tw.Update(0.5)
	if got := p.BlurLevel(); got != 3 {
		t.Errorf("BlurLevel after Done = %d, want 3", got)
	}
}

func TestBlurTweenClampsTarget(t *testing.T) {
	p := newTestPass(t, &fakeDevice{}, 10)
	tw := NewBlurTween(p, 500, 0.5, nil)
	tw.Update(0.25)
	tw.Update(0.25)
	if got := p.BlurLevel(); got != MaxBlurLevel {
		t.Errorf("BlurLevel = %d, want %d", got, MaxBlurLevel)
	}
}

func TestBlurTweenReset(t *testing.T) {
	p := newTestPass(t, &fakeDevice{}, 40)
	tw := NewBlurTween(p, 0, 1.0, ease.Linear)
	tw.Update(0.5)
	tw.Update(0.5)
	if !tw.Done || p.BlurLevel() != 0 {
		t.Fatalf("Done = %v, BlurLevel = %d", tw.Done, p.BlurLevel())
	}
	tw.Reset()
	if tw.Done {
		t.Error("Reset should clear Done")
	}
	tw.Update(0.5)
	if got := p.BlurLevel(); got != 20 {
		t.Errorf("BlurLevel after Reset = %d, want 20", got)
	}
}
