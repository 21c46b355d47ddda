// Package events provides event bus implementations.
//
// Implementations:
//   - redis: Redis Streams, broadcast by default or shared through a consumer group
//   - memory: in-process, synchronous delivery; used by the websocket stream and tests
package events
