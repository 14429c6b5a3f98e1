package statemachine

import (
	"slices"
	"strings"
)

const dotStartNode = "__start"

// scratchTable runs the setup function into a new table so that exports never touch the live one.
func (m *Machine[D]) scratchTable() (*Table[D], error) {
	return newBuilder[D](m.def.Name).build(m.def.Setup)
}

// GenerateDOT returns the transition graph in Graphviz DOT syntax. The initial state is marked by an edge from a point
// shaped start node, exit states are drawn as rounded double octagons, and every transition becomes an edge labelled
// with its event, in registration order.
//
// GenerateDOT can be called before Start.
func (m *Machine[D]) GenerateDOT() (string, error) {
	table, err := m.scratchTable()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("digraph " + dotID(m.def.Name) + " {\n")
	sb.WriteString("\t" + dotStartNode + " [shape=point];\n")
	for _, name := range exitStateNames(table) {
		sb.WriteString("\t" + dotID(name) + " [style=\"rounded\", shape=doubleoctagon];\n")
	}
	sb.WriteString("\t" + dotStartNode + " -> " + dotID(m.def.Initial.Name()) + ";\n")
	for _, t := range table.transitions {
		sb.WriteString("\t" + dotID(t.From.Name()) + " -> " + dotID(t.To.Name()) +
			" [label=" + dotID(t.Event.Name()) + "];\n")
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

// MermaidDiagram returns the transition graph in Mermaid.js state diagram syntax.
func (m *Machine[D]) MermaidDiagram() (string, error) {
	table, err := m.scratchTable()
	if err != nil {
		return "", err
	}

	diagram := "stateDiagram-v2\n"
	diagram += "[*] --> " + m.def.Initial.Name() + "\n"
	for _, t := range table.transitions {
		diagram += t.From.Name() + " --> " + t.To.Name() + " : " + t.Event.Name() + "\n"
	}
	for _, name := range exitStateNames(table) {
		diagram += name + " --> [*]\n"
	}
	return diagram, nil
}

// Description is a serializable view of a machine definition.
type Description struct {
	Name        string                  `json:"name" yaml:"name"`
	Initial     string                  `json:"initial" yaml:"initial"`
	States      []StateDescription      `json:"states" yaml:"states"`
	Transitions []TransitionDescription `json:"transitions" yaml:"transitions"`
}

// StateDescription describes one state kind.
type StateDescription struct {
	Name     string `json:"name" yaml:"name"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// TransitionDescription describes one registered transition.
type TransitionDescription struct {
	From  string `json:"from" yaml:"from"`
	Event string `json:"event" yaml:"event"`
	To    string `json:"to" yaml:"to"`
}

// Describe returns the machine definition with its states in order of first appearance (initial state first) and its
// transitions in registration order.
func (m *Machine[D]) Describe() (Description, error) {
	table, err := m.scratchTable()
	if err != nil {
		return Description{}, err
	}

	desc := Description{
		Name:        m.def.Name,
		Initial:     m.def.Initial.Name(),
		Transitions: make([]TransitionDescription, 0, len(table.transitions)),
	}
	seen := make(map[*StateKind[D]]bool)
	addState := func(k *StateKind[D]) {
		if seen[k] {
			return
		}
		seen[k] = true
		desc.States = append(desc.States, StateDescription{Name: k.Name(), Terminal: k.Terminal()})
	}

	addState(m.def.Initial)
	for _, t := range table.transitions {
		addState(t.From)
		addState(t.To)
		desc.Transitions = append(desc.Transitions, TransitionDescription{
			From:  t.From.Name(),
			Event: t.Event.Name(),
			To:    t.To.Name(),
		})
	}
	return desc, nil
}

// exitStateNames returns the sorted, de-duplicated names of all exit states reached by a transition.
func exitStateNames[D any](table *Table[D]) []string {
	var names []string
	for _, t := range table.transitions {
		if t.IsTerminal() && !slices.Contains(names, t.To.Name()) {
			names = append(names, t.To.Name())
		}
	}
	slices.Sort(names)
	return names
}

// dotID quotes s as a DOT identifier.
func dotID(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}
