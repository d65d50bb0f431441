// Package media resolves opaque media sources (http/https URLs, file://
// URLs, or local paths) to local file paths that display surfaces can open.
//
// Cache is a single-flight cache keyed by the source string:
//
//	┌──────────────┐  Request(src)   ┌────────────┐  miss  ┌──────────────┐
//	│  component   │ ──────────────▶ │   Cache    │ ─────▶ │  Resolver    │
//	│  (per slot)  │ ◀────────────── │ singleflight│ ◀───── │ (disk / http)│
//	└──────────────┘   path | fail   └────────────┘        └──────────────┘
//
// Concurrent requests for the same source share one resolution. Failures are
// not cached: the entry is dropped and the next request starts over.
// Successful entries remember which component ids asked for them; Release
// drops a component id and evicts entries nobody references any more.
// Files the cache downloaded itself are deleted only once no component
// holds the path, so a noCache refresh never pulls a file out from under a
// surface still showing it.
package media
