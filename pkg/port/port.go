// Package port holds the definition of a physical serial line
package port

import "time"

// EventType indicates the type of change to the line level.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates a low to high transition.
	RisingEdge
	// FallingEdge indicates a high to low transition.
	FallingEdge
)

// Event describes a single edge observed on the line.
type Event struct {
	// Timestamp indicates the time the edge was detected.
	Timestamp time.Duration
	// The type of level change this structure represents.
	Type EventType
}

// Level is the logic level of the serial line.
// An idle UART line rests at High (mark); a start bit pulls it Low.
type Level int

const (
	// High indicates a logical 1.
	High Level = 1
	// Low indicates a logical 0.
	Low Level = 0
	// Invalid indicates an unknown or invalid level.
	Invalid Level = -1
)
