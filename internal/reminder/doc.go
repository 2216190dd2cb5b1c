// Package reminder implements the reminder scheduling core: free-text time
// expression parsing, recurrence rules (daily/weekly/monthly with day-of-month
// and ordinal-weekday variants), the durable entry store, and the polling
// trigger scheduler.
//
// The package never touches chat-platform types. The command layer hands it
// plain ids and strings; delivery goes through the injected Notifier.
package reminder
