// Package websocket provides the observer transport for the rover API.
//
// The package uses a hub-and-spoke model: a central Hub manages all
// connections, and every completed simulation is broadcast to every connected
// observer as a JSON message. Observers are read-only; commands still arrive
// exclusively through the REST API, one complete simulation per request.
//
// Message Protocol:
//
// Outgoing messages are JSON-encoded:
//
//	{"event": "simulation", "data": {<simulation record>}}
//
// Incoming messages are ignored; the read loop exists only to detect
// disconnects and answer pings.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	router.HandleFunc("/ws", hub.ServeWS)
//	hub.Broadcast("simulation", record)
package websocket
