// Package input turns SDL2 events into viewer actions and camera gestures.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Action is a discrete viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionSelect // Slot holds the effect index
	ActionToggle
	ActionChaos
	ActionReturn
	ActionStopAll
	ActionDensityUp
	ActionDensityDown
	ActionGlyphBigger
	ActionGlyphSmaller
	ActionOrientation
)

// Binding maps a key to an action.
type Binding struct {
	Action Action
	Slot   int
}

// DefaultBindings is the viewer keymap: 1..6 select effects, T toggles the
// focused one, C starts or stops chaos, R returns to rest, X stops all,
// +/- change density, [ ] change glyph size, B flips orientation.
func DefaultBindings() map[sdl.Scancode]Binding {
	return map[sdl.Scancode]Binding{
		sdl.SCANCODE_ESCAPE:       {Action: ActionQuit},
		sdl.SCANCODE_1:            {Action: ActionSelect, Slot: 0},
		sdl.SCANCODE_2:            {Action: ActionSelect, Slot: 1},
		sdl.SCANCODE_3:            {Action: ActionSelect, Slot: 2},
		sdl.SCANCODE_4:            {Action: ActionSelect, Slot: 3},
		sdl.SCANCODE_5:            {Action: ActionSelect, Slot: 4},
		sdl.SCANCODE_6:            {Action: ActionSelect, Slot: 5},
		sdl.SCANCODE_T:            {Action: ActionToggle},
		sdl.SCANCODE_C:            {Action: ActionChaos},
		sdl.SCANCODE_R:            {Action: ActionReturn},
		sdl.SCANCODE_X:            {Action: ActionStopAll},
		sdl.SCANCODE_EQUALS:       {Action: ActionDensityUp},
		sdl.SCANCODE_KP_PLUS:      {Action: ActionDensityUp},
		sdl.SCANCODE_MINUS:        {Action: ActionDensityDown},
		sdl.SCANCODE_KP_MINUS:     {Action: ActionDensityDown},
		sdl.SCANCODE_RIGHTBRACKET: {Action: ActionGlyphBigger},
		sdl.SCANCODE_LEFTBRACKET:  {Action: ActionGlyphSmaller},
		sdl.SCANCODE_B:            {Action: ActionOrientation},
	}
}

// Frame is everything input produced since the last Update.
type Frame struct {
	Quit    bool
	Actions []Binding

	Resized       bool
	Width, Height int

	// Drag is the mouse motion with the left button held, in pixels.
	DragX, DragY float32
	// Wheel is the accumulated vertical scroll.
	Wheel float32
}

// Input polls SDL events.
type Input struct {
	bindings map[sdl.Scancode]Binding
	dragging bool
	frame    Frame
}

// New creates an input handler with the default keymap.
func New() *Input {
	return &Input{
		bindings: DefaultBindings(),
		frame:    Frame{Actions: make([]Binding, 0, 8)},
	}
}

// Update drains the SDL event queue and returns the frame's input. The
// returned Frame is reused by the next Update.
func (i *Input) Update() *Frame {
	f := &i.frame
	*f = Frame{Actions: f.Actions[:0]}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			f.Quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				f.Resized = true
				f.Width, f.Height = int(e.Data1), int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			b, ok := i.bindings[e.Keysym.Scancode]
			if !ok {
				continue
			}
			if b.Action == ActionQuit {
				f.Quit = true
				continue
			}
			f.Actions = append(f.Actions, b)

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT {
				i.dragging = e.State == sdl.PRESSED
			}

		case *sdl.MouseMotionEvent:
			if i.dragging {
				f.DragX += float32(e.XRel)
				f.DragY += float32(e.YRel)
			}

		case *sdl.MouseWheelEvent:
			f.Wheel += float32(e.Y)
		}
	}
	return f
}
