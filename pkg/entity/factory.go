package entity

import "fmt"

// Factory materializes instances of one entity family. It is immutable and
// safe for concurrent use; one factory may back many concurrent sessions.
type Factory struct {
	desc   Descriptor
	guards map[string][]Guard // per property, in declared order
}

// Define compiles a descriptor into a Factory. Structural problems (guards on
// undeclared properties, defaults that do not match their kind, unnamed
// descriptors) are reported together and abort construction.
func Define(desc Descriptor) (*Factory, error) {
	var errs []error

	if desc.Name == "" {
		errs = append(errs, &ValidationError{Property: "name", Reason: "required"})
	}
	if len(desc.Properties) == 0 {
		errs = append(errs, &ValidationError{Property: "properties", Reason: "at least one property is required"})
	}

	for name, prop := range desc.Properties {
		if _, err := ParseKind(string(prop.Kind)); err != nil {
			errs = append(errs, &ValidationError{Property: name, Reason: err.Error()})
			continue
		}
		if err := prop.Kind.Validate(prop.Default); err != nil {
			errs = append(errs, &ValidationError{Property: name, Reason: "default: " + err.Error(), Value: prop.Default})
		}
	}

	guards := make(map[string][]Guard)
	for _, g := range desc.Guards {
		if _, ok := desc.Properties[g.Property]; !ok {
			errs = append(errs, &ValidationError{Property: g.Property, Reason: "guard references an undeclared property"})
			continue
		}
		if _, err := ParseOperator(string(g.Condition.Operator)); err != nil {
			errs = append(errs, &ValidationError{Property: g.Property, Reason: "guard: " + err.Error()})
			continue
		}
		guards[g.Property] = append(guards[g.Property], g)
	}

	for name, m := range desc.Methods {
		if m == nil {
			errs = append(errs, &ValidationError{Property: name, Reason: "method is nil"})
		}
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}

	return &Factory{desc: desc, guards: guards}, nil
}

// Name returns the descriptor name of the entity family.
func (f *Factory) Name() string {
	return f.desc.Name
}

// Descriptor returns the compiled descriptor.
func (f *Factory) Descriptor() Descriptor {
	return f.desc
}

// New creates an instance: descriptor defaults first, then a lenient overlay
// of matching keys from initial. Unknown keys are ignored; supplied values
// must match their property's kind.
func (f *Factory) New(initial map[string]any) (*Entity, error) {
	values := make(map[string]any, len(f.desc.Properties))
	for name, prop := range f.desc.Properties {
		values[name] = prop.Default
	}

	for name, value := range initial {
		prop, ok := f.desc.Properties[name]
		if !ok {
			continue
		}
		if err := prop.Kind.Validate(value); err != nil {
			return nil, &ValidationError{Property: name, Reason: err.Error(), Value: value}
		}
		values[name] = value
	}

	return &Entity{
		name:    f.desc.Name,
		values:  values,
		props:   f.desc.Properties,
		guards:  f.guards,
		methods: f.desc.Methods,
	}, nil
}

// Rehydrate re-attaches descriptor rules to an entity restored from
// persistence. Stored values are kept as-is; only properties the descriptor
// still declares remain addressable.
func (f *Factory) Rehydrate(e *Entity) error {
	if e == nil {
		return fmt.Errorf("cannot rehydrate nil entity")
	}
	if e.name != f.desc.Name {
		return fmt.Errorf("entity %q does not belong to family %q", e.name, f.desc.Name)
	}
	if e.values == nil {
		e.values = make(map[string]any, len(f.desc.Properties))
	}
	for name, prop := range f.desc.Properties {
		if _, ok := e.values[name]; !ok {
			e.values[name] = prop.Default
		}
	}
	e.props = f.desc.Properties
	e.guards = f.guards
	e.methods = f.desc.Methods
	return nil
}
