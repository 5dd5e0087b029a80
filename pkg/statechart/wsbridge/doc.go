// Package wsbridge exposes a runner over a websocket. Every text frame is an
// event: either a bare event name or {"name": ..., "data": {...}}. Each frame
// gets a JSON reply once the event is queued or rejected.
package wsbridge
