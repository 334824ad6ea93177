package mipblur

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// BlurTween animates a pass's blur level. Call Update(dt) each frame; the
// rounded value is written through SetBlurLevel.
//
// There is no global animation manager: users call Update themselves.
type BlurTween struct {
	tween *gween.Tween
	pass  *Pass
	Done  bool
}

// NewBlurTween animates p from its current blur level to `to` over duration
// seconds. to is clamped to [0, MaxBlurLevel].
func NewBlurTween(p *Pass, to int, duration float32, fn ease.TweenFunc) *BlurTween {
	if fn == nil {
		fn = ease.Linear
	}
	return &BlurTween{
		tween: gween.New(float32(p.BlurLevel()), float32(clampBlurLevel(to)), duration, fn),
		pass:  p,
	}
}

// Update advances the tween by dt seconds.
func (t *BlurTween) Update(dt float32) {
	if t.Done {
		return
	}
	val, finished := t.tween.Update(dt)
	t.pass.SetBlurLevel(int(math.Round(float64(val))))
	t.Done = finished
}

// Reset rewinds the tween to its start value.
func (t *BlurTween) Reset() {
	t.tween.Reset()
	t.Done = false
}
