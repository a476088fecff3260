package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(m *Machine) *[]Event {
	events := &[]Event{}
	m.Subscribe(func(ev Event) { *events = append(*events, ev) })
	return events
}

func TestEventsOrderAndShape(t *testing.T) {
	m := load(t,
		"LOAD R1, =5",
		"HALT",
	)
	events := collect(m)
	require.NoError(t, m.Run())

	assert.Equal(t, []Event{
		{Type: EventPC, Index: -1, Old: "0", New: "1"},
		{Type: EventRegister, Index: 1, Old: "0", New: "5"},
		{Type: EventPC, Index: -1, Old: "1", New: "2"},
		{Type: EventHalt, Index: -1},
	}, *events)
}

func TestStoreEventCarriesOldCell(t *testing.T) {
	m := load(t,
		"LOAD R1, =100",
		"LOAD R2, =48",
		"STORE R1, R2",
		"STORE R2, R2",
		"HALT",
	)
	events := collect(m)
	require.NoError(t, m.Run())

	var memEvents []Event
	for _, ev := range *events {
		if ev.Type == EventMemory {
			memEvents = append(memEvents, ev)
		}
	}
	require.Len(t, memEvents, 2)
	assert.Equal(t, Event{Type: EventMemory, Index: 12, Old: "", New: "100"}, memEvents[0])
	assert.Equal(t, Event{Type: EventMemory, Index: 12, Old: "100", New: "48"}, memEvents[1])
}

func TestStorageEvents(t *testing.T) {
	m := load(t,
		"LOAD R1, =7",
		"LOAD R2, =16",
		"WRITE R1, R2",
		"HALT",
	)
	events := collect(m)
	require.NoError(t, m.Run())

	var stoEvents []Event
	for _, ev := range *events {
		if ev.Type == EventStorage {
			stoEvents = append(stoEvents, ev)
		}
	}
	require.Len(t, stoEvents, 1)
	assert.Equal(t, Event{Type: EventStorage, Index: 4, Old: "", New: "7"}, stoEvents[0])
}

func TestFailedMutationEmitsOnlyError(t *testing.T) {
	m := load(t, "LOAD R1, [3, R2]")
	events := collect(m)
	assert.False(t, m.Step())

	// The fetch moved the PC, then the step failed: no register or
	// memory event, exactly one error event.
	require.Len(t, *events, 2)
	assert.Equal(t, EventPC, (*events)[0].Type)
	assert.Equal(t, EventError, (*events)[1].Type)
	assert.Contains(t, (*events)[1].Message, "multiple of 4")
}

func TestErrorEmittedExactlyOnce(t *testing.T) {
	m := load(t, "DIV R1, R2")
	events := collect(m)
	assert.False(t, m.Step())
	assert.False(t, m.Step())
	assert.False(t, m.Step())

	count := 0
	for _, ev := range *events {
		if ev.Type == EventError {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBranchEmitsPCEvent(t *testing.T) {
	m := load(t,
		"BR End",
		"LOAD R1, =1",
		"End: HALT",
	)
	events := collect(m)
	require.NoError(t, m.Run())

	var pcs []string
	for _, ev := range *events {
		if ev.Type == EventPC {
			pcs = append(pcs, ev.Old+"->"+ev.New)
		}
	}
	// Fetch pre-increment, then the taken branch, then the final fetch.
	assert.Equal(t, []string{"0->1", "1->2", "2->3"}, pcs)
}

func TestMultipleSubscribers(t *testing.T) {
	m := load(t, "HALT")
	a := collect(m)
	b := collect(m)
	require.NoError(t, m.Run())

	assert.Equal(t, *a, *b)
	require.NotEmpty(t, *a)
}
