package session

import (
	"runtime/debug"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/pkg/protocol"
)

// Coordinator is the only owner of the game. Each Tick drains the relay
// queue, applies the commands in arrival order and hands replies to the
// target clients. It never blocks.
type Coordinator struct {
	engine  Engine
	clients *Registry
	queue   *Queue
	log     logrus.FieldLogger

	moved protocol.Frame

	// position is a snapshot of the engine's position, refreshed by the
	// tick after every applied move so readers never touch the engine.
	position atomic.Value
}

// NewCoordinator creates a Coordinator playing on engine.
func NewCoordinator(engine Engine, clients *Registry, queue *Queue, log logrus.FieldLogger) *Coordinator {
	c := &Coordinator{
		engine:  engine,
		clients: clients,
		queue:   queue,
		log:     log,
		moved:   protocol.MustEncode(protocol.ReplyMoved),
	}
	c.snapshot()
	return c
}

// Tick processes every pending command and returns how many it drained.
func (c *Coordinator) Tick() int {
	entries := c.queue.TryReceiveAll()
	for _, e := range entries {
		c.dispatch(e)
	}
	return len(entries)
}

// Position describes the game position as of the last applied move, or
// returns "" if the engine cannot describe it. Safe to call from any
// goroutine.
func (c *Coordinator) Position() string {
	return c.position.Load().(string)
}

// snapshot must only run on the tick goroutine.
func (c *Coordinator) snapshot() string {
	var pos string
	if p, ok := c.engine.(PositionReporter); ok {
		pos = p.Position()
	}
	c.position.Store(pos)
	return pos
}

func (c *Coordinator) dispatch(e Entry) {
	log := c.log.WithField("remote", e.From)

	cmd, err := protocol.ParseCommand(e.Text)
	if err != nil {
		log.WithError(err).Debugf("discarding %q", e.Text)
		return
	}

	switch cmd.Action {
	case protocol.ActionMove:
		c.applyMove(log, cmd.Argument)
		// Rejected moves get the same reply as accepted ones.
		c.broadcast(c.moved)
	case protocol.ActionTurn:
		reply, err := protocol.Encode(c.engine.Turn().String())
		if err != nil {
			log.WithError(err).Error("failed to encode turn reply")
			return
		}
		c.unicast(e.From, reply)
	default:
		log.WithField("action", cmd.Action).Debug("relaying message")
		reply, err := protocol.Encode(e.Text)
		if err != nil {
			log.WithError(err).Warn("failed to encode echo reply")
			return
		}
		c.broadcast(reply)
	}
}

func (c *Coordinator) applyMove(log logrus.FieldLogger, move string) {
	log = log.WithField("move", move)

	defer func() {
		if err := recover(); err != nil {
			log.Errorf("rules engine panicked: %v\n%s", err, debug.Stack())
		}
	}()

	if err := c.engine.ApplyMove(move); err != nil {
		log.WithError(err).Warn("move rejected")
		return
	}

	if pos := c.snapshot(); pos != "" {
		log = log.WithField("fen", pos)
	}
	log.Info("move applied")

	if o, ok := c.engine.(OutcomeReporter); ok {
		if outcome := o.Outcome(); outcome != "" {
			log.WithField("outcome", outcome).Info("game finished")
		}
	}
}

func (c *Coordinator) broadcast(reply protocol.Frame) {
	data := reply.Bytes()
	for _, client := range c.clients.Snapshot() {
		c.deliver(client, data)
	}
}

func (c *Coordinator) unicast(id string, reply protocol.Frame) {
	client, ok := c.clients.Lookup(id)
	if !ok {
		c.log.WithField("remote", id).Debug("reply target is gone")
		return
	}
	c.deliver(client, reply.Bytes())
}

func (c *Coordinator) deliver(client *Client, data []byte) {
	if err := client.Deliver(data); err != nil {
		c.log.WithField("remote", client.ID()).WithError(err).Debug("reply dropped")
	}
}
