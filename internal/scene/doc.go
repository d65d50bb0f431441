// Package scene holds the spatial model of the stage: Slices (physical output
// regions), Scenes (ordered Slots plus a per-Slice viewport) and the
// compositor that turns a Scene into placements.
//
// Ownership:
//
//	Manager ──owns──▶ Scene ──owns──▶ Slot ──(component id)──▷ Component
//	   │                 │
//	   └──owns──▶ Slice ◁┘ sliceSetup[sliceID] = viewport Rect
//
// Slots refer to components by id only. A slot whose component has been
// removed renders as an empty placement.
//
// Compositing a slot:
//
//	slot.rect ┌───────────────────────┐
//	          │ crop.top              │
//	          │   ┌───────────────┐   │  Outer = rect inset by crop (clip box)
//	          │   │   visible     │   │  Inner = full rect, offset by -crop,
//	          │   │   content     │   │          relative to Outer
//	          │   └───────────────┘   │  Transform applies to Inner only
//	          └───────────────────────┘
//
// Slots are stacked in slice order: later slots paint above earlier ones.
package scene
