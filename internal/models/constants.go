package models

// Status is the persisted decision state of a booking.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus maps a stored status name back to its constant.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusWaiting, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

func (s Status) String() string { return string(s) }

// State is a query-time filter over bookings. It is never persisted.
type State uint8

const (
	StateAll State = iota
	StateCurrent
	StatePast
	StateFuture
	StateWaiting
	StateRejected
)

var stateNames = [...]string{
	StateAll:      "ALL",
	StateCurrent:  "CURRENT",
	StatePast:     "PAST",
	StateFuture:   "FUTURE",
	StateWaiting:  "WAITING",
	StateRejected: "REJECTED",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// ParseState resolves one of the six recognised filter names. Matching is
// exact, as the boundary receives them.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// Scope selects whose bookings a listing query covers.
type Scope uint8

const (
	ScopeBooker Scope = iota
	ScopeOwner
)

const (
	// DateTimeLayout is the wire and storage format of booking windows.
	DateTimeLayout = "2006-01-02T15:04:05"

	// DefaultPageSize размер страницы по умолчанию
	DefaultPageSize = 10

	// DefaultRateLimitRequests запросов на пользователя в окне
	DefaultRateLimitRequests = 120

	// DefaultRateLimitWindow окно ограничения частоты, секунды
	DefaultRateLimitWindow = 60
)
