package counting

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fuersten/statemachine"
)

type traceLine struct {
	State   string `json:"state"`
	Event   string `json:"event"`
	Message string `json:"message"`
}

func readTrace(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var out []string
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line traceLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		entry := line.State + "." + line.Message
		if line.Event != "" {
			entry += "(" + line.Event + ")"
		}
		out = append(out, entry)
	}
	return out
}

func TestScenario(t *testing.T) {
	/* ---------------------------------- Given --------------------------------- */
	require := require.New(t)
	var buf bytes.Buffer
	m := New("", zerolog.New(&buf))

	/* ---------------------------------- When ---------------------------------- */
	counter, err := Scenario(t.Context(), m)

	/* ---------------------------------- Then ---------------------------------- */
	require.NoError(err)
	require.Equal(3, counter)
	require.Equal(DefaultName, m.Name())
	require.True(m.Terminated())
	require.Same(Quit, m.CurrentKind())
	require.Equal([]string{
		"Start.onEntry",
		"Start.run",
		// Stopped: the Started posted by Start is consumed first.
		"Start.onExit(Started)",
		"Count.onEntry(Started)",
		"Count.run(Started)",
		"Count.onExit(Stopped)",
		"Stop.onEntry(Stopped)",
		"Stop.run(Stopped)",
		// Started
		"Stop.onExit(Started)",
		"Count.onEntry(Started)",
		"Count.run(Started)",
		// idle tick
		"Count.run",
		// Stopped
		"Count.onExit(Stopped)",
		"Stop.onEntry(Stopped)",
		"Stop.run(Stopped)",
		// Quitted; the final idle tick does nothing.
		"Stop.onExit(Quitted)",
		"Quit.onEntry(Quitted)",
	}, readTrace(t, &buf))
}

func TestStart_HasNoTransitionOnStopped(t *testing.T) {
	// Stopped right after Start only works because Start posts Started during its bootstrap run.
	require := require.New(t)
	m := New("", zerolog.Nop())
	require.NoError(m.Start(t.Context()))
	require.Equal(1, m.Pending(), "Expected Start to have posted Started")

	for _, tr := range m.Transitions() {
		if tr.From == Start {
			require.NotSame(Stopped, tr.Event, "Unexpected transition %s", tr)
		}
	}
}

func TestProcessEvent_NoTransitionFound(t *testing.T) {
	require := require.New(t)
	m := statemachine.New(statemachine.Definition[Data]{
		Name:    DefaultName,
		Initial: Stop,
		Setup:   Setup,
		NewData: func() *Data { return &Data{Log: zerolog.Nop()} },
	})
	require.NoError(m.Start(t.Context()))

	err := m.ProcessEvent(t.Context(), Stopped)

	require.True(statemachine.IsNoTransitionFoundError(err))
	require.EqualError(err, "no transition found for state 'Stop' with event 'Stopped'")
	require.Same(Stop, m.CurrentKind())
}

func TestGenerateDOT(t *testing.T) {
	require := require.New(t)
	m := New("", zerolog.Nop())

	dot, err := m.GenerateDOT()

	require.NoError(err)
	lines := strings.Split(strings.TrimSpace(dot), "\n")
	require.Equal(`digraph "CountingSM" {`, lines[0])
	require.Equal("}", lines[len(lines)-1])

	var startEdges, labelled, terminals []string
	for _, line := range lines[1 : len(lines)-1] {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "__start ->"):
			startEdges = append(startEdges, line)
		case strings.Contains(line, "[label="):
			labelled = append(labelled, line)
		case strings.Contains(line, "doubleoctagon"):
			terminals = append(terminals, line)
		}
	}
	require.Equal([]string{`__start -> "Start";`}, startEdges)
	require.Equal([]string{
		`"Start" -> "Count" [label="Started"];`,
		`"Count" -> "Stop" [label="Stopped"];`,
		`"Stop" -> "Count" [label="Started"];`,
		`"Start" -> "Quit" [label="Quitted"];`,
		`"Count" -> "Quit" [label="Quitted"];`,
		`"Stop" -> "Quit" [label="Quitted"];`,
	}, labelled)
	require.Equal([]string{`"Quit" [style="rounded", shape=doubleoctagon];`}, terminals)
}
