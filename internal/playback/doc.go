// Package playback models reusable schedules of component actions and runs
// them against a clock.
//
// A Playback owns a Timeline of Tracks. Each Track binds one component (by id)
// to a Range:
//
//	now        now+offset                 now+offset+duration
//	 │────────────▶│ play(start) ─────────────▶│ pause()
//
// The Scheduler turns the tracks of one run into one-shot timers. Starting a
// new run cancels every timer of the previous one. A track with offset 0 plays
// synchronously inside Start.
package playback
