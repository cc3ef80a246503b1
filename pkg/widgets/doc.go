// Package widgets classifies form fields into the closed widget set renderers
// consume. Classification lives in a single function so the precedence rules
// stay in one place; Decorate applies it across a form model and assigns each
// widget to the main or advanced group.
package widgets
