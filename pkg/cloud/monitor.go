package cloud

import "sync/atomic"

// Monitor is the shared online/offline signal. The HTTP client flips it as
// requests succeed or fail at the transport level, and the platform shell can
// set it directly when the OS reports a connectivity change.
type Monitor struct {
	online atomic.Bool
}

// NewMonitor starts optimistic: assume online until a request proves
// otherwise.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.online.Store(true)
	return m
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

func (m *Monitor) Set(online bool) {
	m.online.Store(online)
}
