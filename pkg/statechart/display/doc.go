// Package display renders statechart models as PlantUML state diagrams.
//
// Describe walks a chart depth first from its initial state and assigns every
// reachable vertex a diagram id; PlantUML turns that walk into @startuml text
// that nests composite states and separates concurrent regions.
package display
