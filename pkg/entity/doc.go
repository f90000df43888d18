// Package entity provides descriptor-driven, guarded runtime records.
//
// A Descriptor declares a family of entities at run time: named properties
// with primitive kinds and defaults, an ordered list of guard rules, and
// optional methods bound to each instance. Define compiles a descriptor into
// a Factory; the Factory materializes instances whose every write is checked
// against the property's guards using the value before the write.
//
// Basic usage:
//
//	factory, err := entity.Define(entity.Descriptor{
//	    Name: "LeadProfile",
//	    Properties: map[string]entity.Property{
//	        "status": {Kind: entity.KindString, Default: "open"},
//	        "budget": {Kind: entity.KindNumber},
//	    },
//	    Guards: []entity.Guard{
//	        {Property: "status", Condition: entity.Condition{Operator: entity.OpNeq, Value: "closed"}, Message: "cannot modify a closed profile"},
//	    },
//	})
//	if err != nil {
//	    // Handle definition errors
//	}
//
//	record, _ := factory.New(map[string]any{"budget": 500})
//	if err := record.Set("status", "closed"); err != nil {
//	    // A *GuardError carries the configured message
//	}
//
// There is no reflection over caller types and no I/O: an entity is a
// (key, value, guards) triple store, purely synchronous and deterministic
// given its descriptor and inputs.
package entity
