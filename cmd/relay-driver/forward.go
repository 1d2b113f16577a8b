package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/relay-driver/internal/mqtt"
	"github.com/sweeney/relay-driver/internal/relay"
)

// forwarder publishes relay events off the relay's goroutine, so a slow
// broker never stretches a toggle pulse.
type forwarder struct {
	queue chan queued
	done  chan struct{}
}

// queued is either an event to publish or, when ack is set, a flush marker.
type queued struct {
	event relay.Event
	ack   chan struct{}
}

// startForwarder returns nil when publisher is nil; a nil forwarder drops
// everything.
func startForwarder(publisher mqtt.Publisher, size int) *forwarder {
	if publisher == nil {
		return nil
	}

	f := &forwarder{
		queue: make(chan queued, size),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(f.done)
		for q := range f.queue {
			if q.ack != nil {
				close(q.ack)
				continue
			}
			if err := publisher.Publish(q.event); err != nil {
				log.WithError(err).WithField("state", q.event.State).Warn("publish error")
			}
		}
	}()
	return f
}

func (f *forwarder) observe(e relay.Event) {
	if f == nil {
		return
	}
	select {
	case f.queue <- queued{event: e}:
	default:
		log.WithFields(log.Fields{"pin": e.Pin, "state": e.State}).Warn("event queue full, dropping")
	}
}

// flush blocks until every event queued before the call has been handed
// to the publisher.
func (f *forwarder) flush() {
	if f == nil {
		return
	}
	ack := make(chan struct{})
	f.queue <- queued{ack: ack}
	<-ack
}

// close flushes queued events and waits for the publishing goroutine.
func (f *forwarder) close() {
	if f == nil {
		return
	}
	close(f.queue)
	<-f.done
}
