package engine

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

var ErrNoChoreographyForRole = errors.New("engine: no choreography registered for this (protocol, role) pair")

// Choreography is one role's state machine within a protocol (§9: "model it
// as a tagged variant over Event::Payload and Session::protocol_type; a
// dispatch table maps (ProtocolType, Role) to a state-machine
// implementation. Do not model protocols as subclassing"). HandleEvent
// advances the role's local state in response to an event appended or
// merged into the journal that belongs to sessionID; it must be safe to
// call from the journal's post-append/merge hook and must not block.
type Choreography interface {
	HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error
}

type dispatchKey struct {
	Protocol journal.ProtocolType
	Role     RoleKind
}

// Dispatcher is the (ProtocolType, Role) -> Choreography table itself. It
// holds no protocol knowledge; registering and looking up implementations is
// all it does, keeping every protocol's actual logic in its own file.
type Dispatcher struct {
	table map[dispatchKey]Choreography
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{table: map[dispatchKey]Choreography{}}
}

func (d *Dispatcher) Register(protocol journal.ProtocolType, role RoleKind, c Choreography) {
	d.table[dispatchKey{protocol, role}] = c
}

func (d *Dispatcher) Lookup(protocol journal.ProtocolType, role RoleKind) (Choreography, error) {
	c, ok := d.table[dispatchKey{protocol, role}]
	if !ok {
		return nil, ErrNoChoreographyForRole
	}
	return c, nil
}

// Dispatch looks up and invokes the choreography for (protocol, role)
// against e, scoped to sessionID.
func (d *Dispatcher) Dispatch(ctx context.Context, protocol journal.ProtocolType, role RoleKind, sessionID ids.SessionId, e journal.Event) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "engine.Dispatch")
	defer span.Finish()
	span.SetTag("protocol", int(protocol))
	span.SetTag("role", int(role))
	span.SetTag("session_id", sessionID.String())

	c, err := d.Lookup(protocol, role)
	if err != nil {
		span.SetTag("error", true)
		return err
	}
	if err := c.HandleEvent(ctx, sessionID, e); err != nil {
		span.SetTag("error", true)
		return err
	}
	return nil
}
