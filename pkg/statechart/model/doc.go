// Package model loads statechart definitions from YAML and compiles them into
// runnable charts. Guards, actions and state hooks are referenced by name and
// resolved through a Registry at build time.
//
// Highlights:
// - Parse/Load: decode a Definition, rejecting unknown fields
// - Definition.Validate: report every structural problem at once
// - Definition.Build: create the vertices and transitions of a Statechart
package model
