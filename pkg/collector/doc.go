// Package collector discovers the follower graph around a seed account.
//
// The traversal is depth-first over an explicit stack of frames, one per
// account being expanded, so stack depth never exceeds the requested depth.
// Each frame holds the related accounts fetched for its account and a cursor
// into them. Accounts are marked visited either before expansion (MarkEarly,
// the default) or after (MarkLate).
package collector
