// Package project persists the manager's state between runs.
//
// Every history commit is handed to an Autosaver, which coalesces bursts of
// edits and writes only the newest snapshot to SQLite, pruning old rows. On
// start Restore loads the newest snapshot back into the manager without
// recording history and makes it the base of the undo buffer.
//
//	repo := project.NewSQLiteRepository(db)
//	if _, err := project.Restore(ctx, repo, mgr); err != nil { ... }
//	saver := project.NewAutosaver(repo, project.AutosaveOptions{...})
//	mgr.History().OnCommit(saver.Enqueue)
package project
