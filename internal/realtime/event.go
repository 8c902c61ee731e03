// Package realtime binds server-side mutations to subscriber-side refetches
// through a pub/sub relay. Channels and event names form closed sets: values
// can only be obtained from this package's variables or by parsing a wire
// name, so a misspelled event cannot be published or bound.
package realtime

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEvent   = errors.New("realtime: unknown event")
	ErrUnknownChannel = errors.New("realtime: unknown channel")
)

// Channel is a named broadcast scope.
type Channel struct{ name string }

// Main is the only channel the application broadcasts on.
var Main = Channel{name: "main"}

var channels = []Channel{Main}

func (c Channel) String() string { return c.name }

// Valid reports whether c is one of the declared channels. The zero value is not.
func (c Channel) Valid() bool {
	for _, known := range channels {
		if c == known {
			return true
		}
	}
	return false
}

// ParseChannel resolves a wire name to a declared channel.
func ParseChannel(name string) (Channel, error) {
	for _, c := range channels {
		if c.name == name {
			return c, nil
		}
	}
	return Channel{}, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrUnknownChannel
	}
	return []byte(c.name), nil
}

func (c *Channel) UnmarshalText(b []byte) error {
	parsed, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Event is a named notification carried on a channel.
type Event struct{ name string }

var (
	AddedPost    = Event{name: "added_post"}
	AddedComment = Event{name: "added_comment"}
	LikedPost    = Event{name: "liked_post"}
	UnlikedPost  = Event{name: "unliked_post"}
	UpdatedInfo  = Event{name: "updated_info"}
)

// events is fixed at init; reassigning an exported handle cannot add to it.
var events = []Event{AddedPost, AddedComment, LikedPost, UnlikedPost, UpdatedInfo}

// Events returns every declared event.
func Events() []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

func (e Event) String() string { return e.name }

// Valid reports whether e is one of the declared events. The zero value is not.
func (e Event) Valid() bool {
	for _, known := range events {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEvent resolves a wire name to a declared event.
func ParseEvent(name string) (Event, error) {
	for _, e := range events {
		if e.name == name {
			return e, nil
		}
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func (e Event) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, ErrUnknownEvent
	}
	return []byte(e.name), nil
}

func (e *Event) UnmarshalText(b []byte) error {
	parsed, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
