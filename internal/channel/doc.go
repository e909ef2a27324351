// Package channel is the sole boundary to the persistent bidirectional
// channel the backend exposes.
//
// # Protocol
//
// Every frame is a JSON envelope {event, data}. The core emits four commands
// (getConversations, getMessages, joinConversation, sendMessage) and
// subscribes to three event families (conversations, messages, newMessage).
// Delivery is at least once while connected, with no ordering guarantee
// across event families; within one connection, events are dispatched to
// handlers in arrival order.
//
// # Implementations
//
// WSGateway is the production implementation over a websocket. Reconnect and
// backoff are deliberately absent: the channel is treated as a reliable
// external collaborator, and a dead socket surfaces as the Disconnected
// state for the owner to act on.
package channel
