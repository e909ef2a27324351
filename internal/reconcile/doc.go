// Package reconcile merges the contact directory with the conversation store
// into one authoritative inbox list.
//
// # Algorithm
//
// For every contact, the reconciler applies the role/type matching table to
// find at most one conversation whose participant-id field equals the
// contact's id. A hit becomes a real inbox entry decorated with the contact's
// display fields; a miss becomes a draft entry whose id is a pure function of
// (type, contactID). The merged list is sorted most-recently-active first,
// with drafts at the bottom (zero timestamp) until activity promotes them.
//
// # Promotion
//
// ResolveDraft is the narrow re-match used while a draft is selected: the
// moment the backend creates the real conversation (first message sent), the
// selection is switched to the real id without the UI noticing.
//
// The reconciler is stateless, side-effect free apart from logging, and total:
// it never returns an error for well-typed input.
package reconcile
