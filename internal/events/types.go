package events

// EventType represents the type of engine event
type EventType string

// Event type constants
const (
	// Detection events
	EventTypeTokenEntered EventType = "token_entered"
	EventTypeTokenLeft    EventType = "token_left"

	// Timeline events
	EventTypeTurnStarted   EventType = "turn_started"
	EventTypeTurnEnded     EventType = "turn_ended"
	EventTypeRoundAdvanced EventType = "round_advanced"

	// Area lifecycle events
	EventTypeAreaPlaced    EventType = "area_placed"
	EventTypeAreaDestroyed EventType = "area_destroyed"

	// Resolution events
	EventTypeResolutionCompleted EventType = "resolution_completed"
)

// Event is an engine notification. Payload fields are populated per type;
// unused fields stay zero.
type Event struct {
	Type      EventType
	AreaID    string
	TokenID   string
	SceneID   string
	Round     int
	Turn      int
	Payload   any // type-specific extra data, e.g. a resolution result
	cancelled bool
}

// GetType returns the event type
func (e *Event) GetType() EventType { return e.Type }

// IsCancelled reports whether a listener stopped propagation
func (e *Event) IsCancelled() bool { return e.cancelled }

// Cancel stops propagation to lower-priority listeners
func (e *Event) Cancel() { e.cancelled = true }
