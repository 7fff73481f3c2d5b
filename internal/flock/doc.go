// Package flock provides cross-platform file locking utilities.
//
// The run store locks each run's state file before reading or writing it,
// so a status query never observes a half-written record and concurrent
// engine updates serialize. Locks are exclusive and non-blocking; callers
// own the retry policy.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
