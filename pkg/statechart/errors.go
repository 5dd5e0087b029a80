package statechart

import "github.com/pkg/errors"

var (
	ErrNilParent            = errors.New("parent cannot be nil")
	ErrInvalidParent        = errors.New("invalid parent for vertex")
	ErrNilVertex            = errors.New("transition start and end are required")
	ErrParentInactive       = errors.New("parent state not activated")
	ErrInactiveDispatch     = errors.New("inactive state attempting to dispatch transition")
	ErrNoInitialState       = errors.New("no initial state")
	ErrInvalidRegion        = errors.New("a concurrent state can only hold composite state regions")
	ErrFinalTransition      = errors.New("cannot add a transition from a final state")
	ErrStatechartTransition = errors.New("cannot add a transition to a statechart")
	ErrAlreadyStarted       = errors.New("statechart already started")
	ErrNotStarted           = errors.New("statechart not started")

	ErrInitialExists       = errors.New("initial state already present")
	ErrInitialMultiple     = errors.New("there can only be a single transition from an initial state")
	ErrInitialTrigger      = errors.New("transition from initial state must not require an event trigger")
	ErrInitialGuard        = errors.New("transition from initial state cannot have a guard condition")
	ErrInitialNoTransition = errors.New("initial state must be able to dispatch transition")

	ErrHistoryExists      = errors.New("history state already present")
	ErrHistoryTransitions = errors.New("history state cannot have more than 1 transition")
	ErrHistoryNoDefault   = errors.New("history state has no remembered state and no default transition")

	ErrNoChoice        = errors.New("no choice made due to guard conditions, add a transition with an else guard")
	ErrInternalTrigger = errors.New("internal transition requires an event trigger")
)
