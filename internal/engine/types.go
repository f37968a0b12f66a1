package engine

// CircuitState is the state of the circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// SystemState is the qualitative health of the simulated service.
type SystemState string

const (
	StateStable   SystemState = "stable"
	StateDegraded SystemState = "degraded"
	StateDown     SystemState = "down"
)

// EventKind classifies an Event without parsing its message.
type EventKind string

const (
	EventCircuitOpened   EventKind = "circuit_opened"
	EventCircuitHalfOpen EventKind = "circuit_half_open"
	EventCircuitClosed   EventKind = "circuit_closed"
	EventStateTransition EventKind = "state_transition"
	EventRetryStorm      EventKind = "retry_storm"
)

// TickMetric is the aggregate outcome of one tick.
type TickMetric struct {
	Tick           int          `json:"tick"`
	Time           float64      `json:"time"`
	Requests       int          `json:"requests"`
	RequestsPerSec float64      `json:"requestsPerSec"`
	SuccessCount   int          `json:"successCount"`
	FailureCount   int          `json:"failureCount"`
	ErrorRate      float64      `json:"errorRate"`
	AvgLatency     float64      `json:"avgLatency"`
	P95Latency     float64      `json:"p95Latency"`
	MaxLatency     float64      `json:"maxLatency"`
	RetryCount     int          `json:"retryCount"`
	QueueDepth     int          `json:"queueDepth"`
	CircuitState   CircuitState `json:"circuitState"`
	SystemState    SystemState  `json:"systemState"`
}

// Event is a notable state change, stamped with simulated seconds.
type Event struct {
	Time    float64   `json:"time"`
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
}

// Summary aggregates a completed run.
type Summary struct {
	TotalRequests  int     `json:"totalRequests"`
	TotalSuccesses int     `json:"totalSuccesses"`
	TotalFailures  int     `json:"totalFailures"`
	SuccessRate    float64 `json:"successRate"`
	ErrorRate      float64 `json:"errorRate"`
	AvgLatency     float64 `json:"avgLatency"`
	P95Latency     float64 `json:"p95Latency"`
	MaxLatency     float64 `json:"maxLatency"`
	DowntimeSec    float64 `json:"downtimeSec"`
	CircuitTrips   int     `json:"circuitTrips"`
	RetryStorms    int     `json:"retryStorms"`
	MainCause      string  `json:"mainCause"`
}

// Result is everything a completed run produces.
type Result struct {
	Seed    int64        `json:"seed"`
	Metrics []TickMetric `json:"metrics"`
	Events  []Event      `json:"events"`
	Summary Summary      `json:"summary"`
}
