// Package engine runs a game session.
//
// An Engine owns one economy.State and is its only writer. Everything that
// touches the state funnels through the Run loop:
//
//   - intents submitted with Do from any goroutine (gather, buy, research,
//     snapshot, reset, save, export, import), answered on a reply channel
//   - production ticks from a ticker (default every 100ms)
//   - autosaves from a second ticker (default every 5s)
//
// Before applying an intent the loop credits production up to the current
// wall time, so results never depend on where the last tick fell.
//
// Saves are snapshotted inside the loop and written by a separate saver
// goroutine. A failed write is logged and the session continues. When Run
// returns it has written a final save and closed every subscription.
//
// Every successful mutation and every tick publishes a Notification to all
// subscribers. Mailboxes are unbounded, so each subscriber sees every
// notification in publish order.
package engine
