package model

import "time"

// Envelope carries one raw output line from a source to the router.
// It is the transport contract between source goroutines and the coordinator.
type Envelope struct {
	SourceID int
	Channel  Channel
	Text     string
	Received time.Time // stamped by the producing goroutine on read
}
