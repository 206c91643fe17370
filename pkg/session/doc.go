// Package session tracks who is signed in to Synapse.
//
// A Session is created once per process and shared by every consumer. It
// starts in the loading state until the first CheckAuth completes, and
// notifies subscribers on every change. Session cookies can be persisted to
// a file so the CLI stays signed in between runs; Watch picks up logins and
// logouts made by another process sharing that file.
package session
