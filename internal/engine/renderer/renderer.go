// Package renderer draws the glyph cloud as instanced, glowing sprites.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/engine/shader"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Glyph shapes the fragment shader knows how to draw.
const (
	ShapeStar int32 = iota
	ShapeDisc
	ShapeCross
)

// GlyphShape maps a glyph to the closest procedural shape.
func GlyphShape(glyph string) int32 {
	switch glyph {
	case "●", "•", "o", "O", ".", "○":
		return ShapeDisc
	case "+", "✚", "x", "X", "×", "✕":
		return ShapeCross
	}
	return ShapeStar
}

const mat4Size = int(unsafe.Sizeof(math.Mat4{}))

const vertexSrc = `
#version 410 core

layout (location = 0) in vec2 aCorner;
layout (location = 1) in mat4 aModel;

uniform mat4 uViewProj;
uniform float uGlowRadius;

out vec2 vLocal;

void main() {
	vLocal = aCorner * uGlowRadius;
	gl_Position = uViewProj * aModel * vec4(vLocal, 0.0, 1.0);
}
`

const fragmentSrc = `
#version 410 core

in vec2 vLocal;
out vec4 FragColor;

uniform vec3 uColor;
uniform float uGlow;
uniform int uShape;

float shapeDist(vec2 p) {
	vec2 a = abs(p);
	if (uShape == 1) {
		return length(p);
	}
	if (uShape == 2) {
		return min(a.x, a.y) < 0.2 ? max(a.x, a.y) : 2.0;
	}
	return sqrt(a.x) + sqrt(a.y);
}

void main() {
	float d = shapeDist(vLocal);
	float core = 1.0 - smoothstep(0.85, 1.0, d);
	float halo = uGlow * exp(-3.0 * max(d - 1.0, 0.0)) * (1.0 - core);
	float alpha = clamp(core + halo, 0.0, 1.0);
	if (alpha < 0.01) {
		discard;
	}
	FragColor = vec4(uColor * (core + halo * 1.5), alpha);
}
`

// Renderer owns the GL state for drawing glyph instances.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program

	vao         uint32
	quadVBO     uint32
	instanceVBO uint32
	capacity    int
}

// New creates a renderer. It must be called after the GL context exists.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named(logger.Renderer),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.02, 0.02, 0.05, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = shader.Compile(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create glyph program: %w", err)
	}
	r.createBuffers()
	return r, nil
}

// createBuffers sets up a unit quad and an instance buffer carrying one
// model matrix per glyph in attribute slots 1..4.
func (r *Renderer) createBuffers() {
	quad := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	for col := uint32(0); col < 4; col++ {
		loc := 1 + col
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, int32(mat4Size), uintptr(col*16))
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribDivisor(loc, 1)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	r.log.Debug("glyph buffers created", zap.Uint32("vao", r.vao))
}

// Close frees GL resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.quadVBO != 0 {
		gl.DeleteBuffers(1, &r.quadVBO)
	}
	if r.instanceVBO != 0 {
		gl.DeleteBuffers(1, &r.instanceVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles framebuffer resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin clears the frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawGlyphs draws one glyph per model matrix with the given fill colour and glow.
func (r *Renderer) DrawGlyphs(viewProj math.Mat4, models []math.Mat4, glyph string, v effects.Visual) {
	if len(models) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	size := len(models) * mat4Size
	if len(models) > r.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(&models[0]), gl.DYNAMIC_DRAW)
		r.capacity = len(models)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(&models[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	c := v.Color()
	r.program.Use()
	r.program.SetMat4("uViewProj", viewProj)
	r.program.SetVec3("uColor", float32(c.R), float32(c.G), float32(c.B))
	r.program.SetFloat("uGlow", v.GlowStrength)
	r.program.SetFloat("uGlowRadius", max(v.GlowRadius, 1))
	r.program.SetInt("uShape", GlyphShape(glyph))

	gl.BindVertexArray(r.vao)
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, int32(len(models)))
	gl.BindVertexArray(0)
}
