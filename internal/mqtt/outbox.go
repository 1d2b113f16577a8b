package mqtt

import log "github.com/sirupsen/logrus"

// pendingMsg is a serialized message waiting for the broker connection.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages while the client is disconnected. A retained
// message replaces any queued retained message on the same topic, since the
// broker keeps only the last one anyway. When full, the oldest message is
// dropped. Not safe for concurrent use; the caller synchronizes.
type outbox struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit}
}

func (o *outbox) add(msg pendingMsg) {
	if msg.retained {
		for i, m := range o.msgs {
			if m.retained && m.topic == msg.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.WithField("limit", o.limit).Warn("mqtt: outbox full, dropping oldest")
		}
		o.dropped++
		o.msgs = o.msgs[1:]
	}
	o.msgs = append(o.msgs, msg)
}

// take returns the queued messages oldest first and how many were dropped
// since the last take, then empties the outbox.
func (o *outbox) take() ([]pendingMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs, o.dropped = nil, 0
	return msgs, dropped
}

func (o *outbox) len() int { return len(o.msgs) }
