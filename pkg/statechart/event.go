package statechart

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Event is an observable occurrence that may trigger transitions.
type Event struct {
	Name string
	Data map[string]any

	id        uuid.UUID
	createdAt time.Time
}

func NewEvent(name string, data map[string]any) *Event {
	if data == nil {
		data = map[string]any{}
	}
	return &Event{
		Name:      name,
		Data:      data,
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
	}
}

func (e *Event) Id() uuid.UUID {
	return e.id
}

// CreatedAt time creation (UTC)
func (e *Event) CreatedAt() time.Time {
	return e.createdAt
}

// Equal compares name and data, identity is ignored.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Name != other.Name {
		return false
	}
	if len(e.Data) == 0 && len(other.Data) == 0 {
		return true
	}
	return reflect.DeepEqual(e.Data, other.Data)
}

func (e *Event) String() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Event(name=%q, data=%v)", e.Name, e.Data)
}

func eventName(e *Event) string {
	if e == nil {
		return ""
	}
	return e.Name
}
