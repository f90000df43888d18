package domain

import "sort"

// ViewNode is the render descriptor bound to one state: the component a
// rendering adapter should present, plus its parameters. The engine never
// interprets either field.
type ViewNode struct {
	Component string         `json:"component" yaml:"component" mapstructure:"component"`
	Props     map[string]any `json:"props,omitempty" yaml:"props,omitempty" mapstructure:"props"`
}

// ViewMapDefinition is the JSON-shaped document a ViewMap is built from.
type ViewMapDefinition struct {
	Nodes map[string]ViewNode `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// ViewMap is an immutable value object mapping state ids to view descriptors.
// It is independent of any TransitionTable; the template layer pairs the two
// and checks the combined coverage invariant.
type ViewMap struct {
	nodes map[string]ViewNode
}

// NewViewMap builds a ViewMap from its definition. Every node must name a
// component.
func NewViewMap(def ViewMapDefinition) (*ViewMap, error) {
	nodes := make(map[string]ViewNode, len(def.Nodes))
	for id, node := range def.Nodes {
		if id == "" {
			return nil, &DefinitionError{Ref: "nodes", Reason: "node id is required"}
		}
		if node.Component == "" {
			return nil, &DefinitionError{Ref: id, Reason: "view component is required"}
		}
		nodes[id] = copyViewNode(node)
	}
	return &ViewMap{nodes: nodes}, nil
}

// Node returns the descriptor for a state, or nil when none is mapped.
func (m *ViewMap) Node(stateID string) *ViewNode {
	node, ok := m.nodes[stateID]
	if !ok {
		return nil
	}
	copied := copyViewNode(node)
	return &copied
}

// NodeIDs returns all mapped state ids in deterministic order.
func (m *ViewMap) NodeIDs() []string {
	ids := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definition reconstructs the JSON-shaped document for this map.
func (m *ViewMap) Definition() ViewMapDefinition {
	nodes := make(map[string]ViewNode, len(m.nodes))
	for id, node := range m.nodes {
		nodes[id] = copyViewNode(node)
	}
	return ViewMapDefinition{Nodes: nodes}
}

func copyViewNode(node ViewNode) ViewNode {
	out := ViewNode{Component: node.Component}
	if node.Props != nil {
		out.Props = make(map[string]any, len(node.Props))
		for k, v := range node.Props {
			out.Props[k] = v
		}
	}
	return out
}
