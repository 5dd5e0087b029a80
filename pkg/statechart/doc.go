// Package statechart implements hierarchical state machines: simple,
// composite and concurrent states, initial, choice and shallow history
// pseudostates, and guarded transitions with actions. States may run a do
// activity in its own goroutine for as long as they are active.
//
// Highlights:
// - NewStatechart/Start/Dispatch/Stop: build and drive a chart
// - NewState/NewCompositeState/NewConcurrentState/NewFinalState: states
// - NewInitialState/NewShallowHistoryState/NewChoiceState: pseudostates
// - NewTransition/NewInternalTransition: external, local and internal transitions
// - WithEntry/WithExit/WithDo/WithInternal: state behaviour
// - CallGuard/EqualGuard/ElseGuard/NotGuard and CallAction: named building blocks
// - Scope: variables shared down the state hierarchy
package statechart
