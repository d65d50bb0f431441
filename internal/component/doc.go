// Package component defines the polymorphic visual elements placed into
// scenes: the Component interface, the type Registry that builds instances
// from a type tag, editable Property descriptors, and the default plugin
// (video, image, text, browser).
//
// # Serialisation
//
// A component serialises as its concrete struct with the embedded Base fields
// flattened, e.g. {"id":"…","name":"Title","type":"text","content":"…"}.
// Partial updates go through Registry.Merge, which decodes the payload over
// the live instance so that only keys present in the payload change. The id
// and type of an instance never change after creation.
//
// # Render state
//
// One component can be placed in several slots at once. Anything a component
// keeps between renders (resolved media, load status) is keyed by slot id and
// dropped with ForgetSlot when the slot disappears.
//
// # Thread Safety
//
// Component fields are owned by the scene manager and mutated under its lock.
// Per-slot render state has its own lock because media resolution completes
// on a background goroutine.
package component
