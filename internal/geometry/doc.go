// Package geometry provides the value types used to lay out scene content:
// rectangles, crop margins, 2D points and affine transforms.
//
// All types are plain values. They are copied, never shared, when they cross
// entity boundaries, so a Slot's rect can be handed to a caller without the
// caller being able to mutate the Slot.
//
// JSON decoding is lenient: missing or null fields fall back to a neutral
// default (0 for rects, CSS shorthand cascade for margins, identity for
// matrices) so snapshots written by older builds still load.
package geometry
