package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-orbis/internal/synapse"
)

const DefaultSubject = "orbis.synapse"

// Publisher sends raw messages to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Summary is the message published for every tick that changed the world.
type Summary struct {
	Tick      uint64         `json:"tick"`
	Added     map[string]int `json:"added"`
	Removed   map[string]int `json:"removed"`
	Transfers int            `json:"transfers"`
}

func Summarize(snap synapse.Snapshot) Summary {
	s := Summary{
		Tick:      snap.Tick,
		Added:     map[string]int{},
		Removed:   map[string]int{},
		Transfers: len(snap.Transfers),
	}
	for _, kind := range synapse.EntityKinds() {
		if n := len(snap.Added(kind)); n > 0 {
			s.Added[kind.String()] = n
		}
		if n := len(snap.Removed(kind)); n > 0 {
			s.Removed[kind.String()] = n
		}
	}
	return s
}

// SynapsePublisher broadcasts per-tick mutation summaries. Publishing never
// fails the frame; errors are logged.
type SynapsePublisher struct {
	pub      Publisher
	subject  string
	failures int
}

func NewSynapsePublisher(pub Publisher, subject string) *SynapsePublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &SynapsePublisher{pub: pub, subject: subject}
}

// PublishSnapshot reports whether a message was sent.
func (p *SynapsePublisher) PublishSnapshot(snap synapse.Snapshot) bool {
	if snap.Empty() {
		return false
	}

	err := p.publish(Summarize(snap))
	if err != nil {
		p.failures++
		if p.failures == 1 || p.failures%100 == 0 {
			slog.Warn("failed to publish synapse summary", "tick", snap.Tick, "failures", p.failures, "error", err)
		}
		return false
	}

	p.failures = 0
	return true
}

func (p *SynapsePublisher) publish(s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	return p.pub.Publish(p.subject, data)
}
