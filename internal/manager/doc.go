// Package manager implements the Scene Manager: the single authoritative
// store for scenes, slices, components and playbacks.
//
// Every mutation enters through a Manager method:
//
//	caller ──▶ Manager method ─┬─▶ mutate entities (under m.mu)
//	                           ├─▶ reconcile derived state
//	                           │     (active scene, every scene's sliceSetup)
//	                           ├─▶ Notifier (under m.mu, mutation order)
//	                           └─▶ history.Recorder push (after unlock)
//
// One mutex serialises all entry points, so the store behaves as if a single
// logical thread owned it. Effects that wait on the outside world run outside
// that lock: history capture, playback timers and media resolution all call
// back in through public methods.
//
// Error policy: lookups of an unknown scene, slice, component or playback in
// convenience operations log a warning and do nothing. Operations whose
// precondition is a programming error return a sentinel error: slot edits on
// an unknown scene, starting an unknown playback, JSON updates without an id,
// unregistered component types and unknown actions.
package manager
