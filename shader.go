package mipblur

import "github.com/hajimehoshi/ebiten/v2"

// --- Kage shader sources ---
// Shaders use //kage:unit pixels. Ebitengine colors are premultiplied, so the
// box average needs no un-premultiply step.

// boxFilterShaderSrc averages a clamped 3x3 neighbourhood of the up-scaled
// input and scales it by Weight. Drawn source-over on top of the level's
// source mip, the result is lerp(mip, box(input), Weight).
const boxFilterShaderSrc = `//kage:unit pixels
package main

var Weight float
var Level float
var MipCount float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	limit := origin + imageSrc0Size() - vec2(1)
	sum := vec4(0)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p := src + vec2(float(i-1), float(j-1))
			sum += imageSrc0UnsafeAt(clamp(p, origin, limit))
		}
	}
	return sum / 9 * Weight
}
`

// --- Lazy shader compilation (no sync.Once: devices are single-threaded) ---

var boxFilterShader *ebiten.Shader

func ensureBoxFilterShader() *ebiten.Shader {
	if boxFilterShader == nil {
		s, err := ebiten.NewShader([]byte(boxFilterShaderSrc))
		if err != nil {
			panic("mipblur: failed to compile box filter shader: " + err.Error())
		}
		boxFilterShader = s
	}
	return boxFilterShader
}

// KageMaterial is a Material drawn by EbitenDevice. The shader receives the
// up-scaled level input as Images[0] and the float uniforms Weight, Level and
// MipCount.
type KageMaterial struct {
	name     string
	shader   *ebiten.Shader
	uniforms map[string]any
	op       ebiten.DrawTrianglesShaderOptions
}

// NewBoxFilterMaterial returns a material using the built-in box filter
// shader. The shader is compiled on first use.
func NewBoxFilterMaterial() *KageMaterial {
	return &KageMaterial{
		name:     "BoxFilter",
		uniforms: make(map[string]any, 3),
	}
}

// NewKageMaterial wraps a user-provided Kage shader. It must declare the
// same uniforms as the built-in box filter.
func NewKageMaterial(name string, shader *ebiten.Shader) *KageMaterial {
	return &KageMaterial{
		name:     name,
		shader:   shader,
		uniforms: make(map[string]any, 3),
	}
}

// MaterialName implements Material.
func (m *KageMaterial) MaterialName() string { return m.name }

// Shader returns the compiled shader, compiling the built-in one if needed.
func (m *KageMaterial) Shader() *ebiten.Shader {
	if m.shader == nil {
		m.shader = ensureBoxFilterShader()
	}
	return m.shader
}

// bind writes p into the uniform map and returns the draw options. Scalar
// float32 boxing is unavoidable with Ebitengine's uniform API.
func (m *KageMaterial) bind(input *ebiten.Image, p FilterParams) *ebiten.DrawTrianglesShaderOptions {
	m.uniforms["Weight"] = p.Weight()
	m.uniforms["Level"] = float32(p.Level)
	m.uniforms["MipCount"] = float32(p.MipCount)
	m.op.Images[0] = input
	m.op.Uniforms = m.uniforms
	m.op.Blend = ebiten.BlendSourceOver
	return &m.op
}
