package pipeline

// Stage identifies one phase of an analysis run.
type Stage string

const (
	StageVision     Stage = "vision"
	StageResale     Stage = "resale"
	StageEngagement Stage = "engagement"
	StageOrders     Stage = "orders"
	StageDone       Stage = "done"
)

// Status describes the state transition an Event reports.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one progress notification emitted while an analysis runs.
type Event struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ProgressSink receives analysis progress events. Publish must not block
// for long; slow consumers should drop events rather than stall the
// analysis.
type ProgressSink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// NopSink discards all events.
var NopSink ProgressSink = nopSink{}

func orNop(sink ProgressSink) ProgressSink {
	if sink == nil {
		return NopSink
	}
	return sink
}
