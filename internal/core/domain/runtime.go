package domain

import "sync/atomic"

// Capability is one AI client the pipeline depends on.
type Capability uint32

const (
	CapabilityEmbedding Capability = 1 << iota
	CapabilityCompletion
)

func (c Capability) String() string {
	switch c {
	case CapabilityEmbedding:
		return "embedding"
	case CapabilityCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// Capabilities records which AI clients are installed right now. Indexing
// needs an embedder; answering questions needs both.
type Capabilities struct {
	// StateBackend names the pipeline state store: "redis" or "postgres".
	StateBackend string

	bits atomic.Uint32
}

func NewCapabilities(stateBackend string) *Capabilities {
	return &Capabilities{StateBackend: stateBackend}
}

// Set marks c as present or absent.
func (c *Capabilities) Set(capability Capability, present bool) {
	for {
		old := c.bits.Load()
		next := old &^ uint32(capability)
		if present {
			next |= uint32(capability)
		}
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Has reports whether every capability in want is present.
func (c *Capabilities) Has(want Capability) bool {
	return Capability(c.bits.Load())&want == want
}

func (c *Capabilities) CanIndex() bool {
	return c.Has(CapabilityEmbedding)
}

func (c *Capabilities) CanAnswer() bool {
	return c.Has(CapabilityEmbedding | CapabilityCompletion)
}

// Missing lists the absent members of want, in bit order.
func (c *Capabilities) Missing(want Capability) []string {
	have := Capability(c.bits.Load())
	var out []string
	for _, one := range []Capability{CapabilityEmbedding, CapabilityCompletion} {
		if want&one != 0 && have&one == 0 {
			out = append(out, one.String())
		}
	}
	return out
}
