// Package notifytest provides in-memory mail transports for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify"
)

// Recorder keeps every message it is asked to send. When Err is set, Send
// records the attempt and then fails with Err.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	Err  error
}

func (r *Recorder) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.Err
}

func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// To returns the messages addressed to one recipient.
func (r *Recorder) To(addr string) []notify.Message {
	var out []notify.Message
	for _, m := range r.Messages() {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
