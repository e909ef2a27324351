// Package directory loads the contact directory: the set of counterparts a
// viewer's role is allowed to chat with. Failures degrade to an empty
// directory rather than propagating into reconciliation.
package directory
