package model

// Decorator enriches a form model after the canonical descriptor-derived
// structure has been built. Widget classification is implemented as a
// decorator so the builder stays a pure schema conversion.
type Decorator interface {
	Decorate(*FormModel) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormModel) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormModel) error {
	return fn(form)
}
