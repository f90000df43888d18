package template

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/entity"
)

// Document is the serializable definition of one template: the transition
// table, the view map, and an optional entity descriptor. It is consumed at
// template-load time; existing sessions keep referencing the template
// snapshot they were bound to.
type Document struct {
	ID     string                   `json:"id" yaml:"id" mapstructure:"id"`
	FSM    domain.TableDefinition   `json:"fsm" yaml:"fsm" mapstructure:"fsm"`
	Views  domain.ViewMapDefinition `json:"views" yaml:"views" mapstructure:"views"`
	Entity *entity.Descriptor       `json:"entity,omitempty" yaml:"entity,omitempty" mapstructure:"entity"`
}

// Parse reads a document from JSON or YAML bytes (YAML is a superset, so one
// decoder serves both).
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template document: %w", err)
	}
	return &doc, nil
}

// Decode converts an already-deserialized generic map into a Document. Useful
// for callers that receive definitions embedded in larger payloads.
func Decode(raw map[string]any) (*Document, error) {
	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &doc,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode template document: %w", err)
	}
	return &doc, nil
}

// Build constructs the immutable template from the document, running every
// construction-time invariant. Nothing is produced on failure.
func (d *Document) Build() (*Template, error) {
	table, err := domain.NewTransitionTable(d.FSM)
	if err != nil {
		return nil, err
	}

	views, err := domain.NewViewMap(d.Views)
	if err != nil {
		return nil, err
	}

	var factory *entity.Factory
	if d.Entity != nil {
		factory, err = entity.Define(*d.Entity)
		if err != nil {
			return nil, err
		}
	}

	return New(d.ID, table, views, factory)
}
