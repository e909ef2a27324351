// Package chat defines the shared data model for the messaging core:
// contacts, conversations, messages, reconciled inbox entries, and the
// draft id codec that names not-yet-created conversations.
package chat
