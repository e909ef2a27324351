// Package stream keeps the ordered message list for the active conversation,
// correct under any interleaving of history responses and live pushes.
package stream
