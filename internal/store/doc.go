// Package store holds the in-memory projection of backend-persisted
// conversations. Persistence itself is owned by the backend; this store is
// replaced wholesale by list snapshots and patched by live messages.
package store
