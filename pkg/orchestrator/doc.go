// Package orchestrator wires the descriptor-to-form pipeline: load an
// endpoint descriptor, parse its operations, build the form model, classify
// widgets, overlay presentation hints, and render through a registered
// renderer. Every stage can be swapped through options; the zero-option
// constructor assembles the built-in implementations.
package orchestrator
