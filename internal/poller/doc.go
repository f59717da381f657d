// Package poller converges the UI's view of a conversation's title after
// asynchronous background generation, without a push channel.
//
// # State machine
//
// PollForTitle, invoked after a message exchange completes:
//
//   - empty conversation ID: no-op
//   - title already in the snapshot: one refresh, done
//   - otherwise: re-fetch the full list on a fixed interval, bounded by a
//     maximum attempt count. Finding a non-empty title replaces the snapshot
//     (newest-first) and stops; exhausting the budget stops with the list as
//     last fetched. Fetch errors are logged, consume an attempt, and do not
//     abort the remaining ticks.
//
// Separately, ScheduleRefreshes fires refreshes on a fixed best-effort
// schedule (by default +2s, +7s, +17s) after a brand-new conversation, so the
// title surfaces even if the primary poll path did not run.
//
// Both paths only read the remote list and replace the local snapshot
// atomically; interleaving cannot corrupt state, the latest completed fetch
// wins. The interval, attempt cap, and refresh schedule are policy
// configuration, not constants, so tests shrink them to milliseconds.
package poller
