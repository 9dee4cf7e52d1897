// Package state keeps a per-user two-state conversation machine: a user is
// either idle or awaiting exactly one follow-up message bound to a handler tag.
package state
