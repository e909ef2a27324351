// Package session is the orchestrating layer of the messaging core.
//
// A Session owns the conversation store, the reconciled inbox, the active
// message stream, and the selection state machine, and keeps them consistent
// against two collaborators: the contact directory (REST) and the channel
// gateway (persistent bidirectional events).
//
// The UI consumes three read-only projections — Inbox, Messages, Selected —
// and drives the session with Refresh, Select, Deselect, and Send. Draft
// conversations (contacts with no history) are materialized locally and
// promoted to their real conversation the moment the backend creates one;
// the UI never has to know a promotion happened.
package session
