// Package orchestrator sequences one conversational turn: classify the
// intent, collect specialist evidence, synthesize the risk verdict and
// produce the reply with its map commands.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/808vita/sdg-6-water-agents/internal/agents"
	"github.com/808vita/sdg-6-water-agents/internal/config"
	"github.com/808vita/sdg-6-water-agents/internal/memory"
	"github.com/808vita/sdg-6-water-agents/internal/observability"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

// historyLimit bounds how much conversation memory one turn loads.
const historyLimit = 20

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CommandSink receives every map command emitted by a successful turn.
// The HTTP layer plugs its websocket hub in here.
type CommandSink interface {
	Publish(cmd protocol.MapCommand)
}

// Agents bundles the agent set one orchestrator drives.
type Agents struct {
	Classifier *agents.Classifier
	Locator    *agents.LocationExtractor
	General    *agents.GeneralAgent
	Forecaster *agents.ForecastAgent
	Weather    agents.Specialist
	// Specialists is the waterShortage fan-out set, typically weather,
	// news and climate.
	Specialists []agents.Specialist
}

// Options carries the collaborators and tuning for an Orchestrator.
type Options struct {
	Agents            Agents
	Memory            memory.Store
	Metrics           *observability.Metrics
	Sink              CommandSink
	TurnTimeout       time.Duration
	SpecialistTimeout time.Duration
	FanoutPolicy      string
}

type Orchestrator struct {
	agents            Agents
	memory            memory.Store
	metrics           *observability.Metrics
	sink              CommandSink
	turnTimeout       time.Duration
	specialistTimeout time.Duration
	fanoutPolicy      string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(opts Options) (*Orchestrator, error) {
	a := opts.Agents
	if a.Classifier == nil || a.Locator == nil || a.General == nil || a.Forecaster == nil || a.Weather == nil {
		return nil, errors.New("orchestrator: incomplete agent set")
	}
	if len(a.Specialists) == 0 {
		return nil, errors.New("orchestrator: no fan-out specialists")
	}
	if opts.Memory == nil {
		return nil, errors.New("orchestrator: memory store is required")
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 45 * time.Second
	}
	if opts.SpecialistTimeout <= 0 || opts.SpecialistTimeout > opts.TurnTimeout {
		opts.SpecialistTimeout = opts.TurnTimeout
	}
	if opts.FanoutPolicy == "" {
		opts.FanoutPolicy = config.FanoutAll
	}
	return &Orchestrator{
		agents:            a,
		memory:            opts.Memory,
		metrics:           opts.Metrics,
		sink:              opts.Sink,
		turnTimeout:       opts.TurnTimeout,
		specialistTimeout: opts.SpecialistTimeout,
		fanoutPolicy:      opts.FanoutPolicy,
		locks:             make(map[string]*sync.Mutex),
	}, nil
}

// HandleTurn processes the final user message of req within the session.
// Turns of the same session are serialized; turns of distinct sessions run
// concurrently. The user turn is persisted up front; the assistant turn is
// persisted only when the whole pipeline succeeds.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID string, req protocol.ChatRequest) (reply protocol.ChatReply, err error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	intentLabel := agents.IntentGeneral
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn aborted by internal fault: %v", r)
		}
		o.countTurn(intentLabel, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	prompt := req.Prompt()

	history, err := o.loadHistory(ctx, sessionID)
	if err != nil {
		return protocol.ChatReply{}, err
	}

	if err := o.memory.AppendTurn(ctx, memory.TurnRecord{
		SessionID: sessionID,
		Role:      protocol.RoleUser,
		Content:   prompt,
	}); err != nil {
		return protocol.ChatReply{}, fmt.Errorf("persist user turn: %w", err)
	}

	intent := o.agents.Classifier.Classify(ctx, prompt, history)
	intentLabel = intent.Agent

	switch intent.Agent {
	case agents.IntentWeather:
		reply, err = o.weatherTurn(ctx, intent, prompt, history)
	case agents.IntentWaterShortage:
		reply, err = o.shortageTurn(ctx, intent, prompt, history)
	default:
		reply, err = o.generalTurn(ctx, prompt, history)
	}
	if err != nil {
		return protocol.ChatReply{}, err
	}

	if err := o.memory.AppendTurn(ctx, memory.TurnRecord{
		SessionID:   sessionID,
		Role:        protocol.RoleAssistant,
		Content:     reply.MessageText,
		MapCommands: reply.MapCommands,
	}); err != nil {
		return protocol.ChatReply{}, fmt.Errorf("persist assistant turn: %w", err)
	}

	o.publish(reply.MapCommands)
	return reply, nil
}

// ClearSession drops a session's conversation memory and its turn lock.
// Session expiry hooks call this so ended sessions do not accumulate
// history or mutexes.
func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	delete(o.locks, sessionID)
	o.mu.Unlock()
	return o.memory.ClearSession(ctx, sessionID)
}

func (o *Orchestrator) generalTurn(ctx context.Context, prompt string, history []protocol.ChatTurn) (protocol.ChatReply, error) {
	text, err := o.agents.General.Answer(ctx, prompt, history)
	if err != nil {
		return protocol.ChatReply{}, err
	}
	return protocol.ChatReply{MessageText: text, MapCommands: []protocol.MapCommand{}}, nil
}

func (o *Orchestrator) weatherTurn(ctx context.Context, intent agents.Intent, prompt string, history []protocol.ChatTurn) (protocol.ChatReply, error) {
	location, err := o.resolveLocation(ctx, intent, prompt, history)
	if err != nil {
		return protocol.ChatReply{}, err
	}

	ev, err := o.runSpecialist(ctx, o.agents.Weather, location)
	if err != nil {
		return protocol.ChatReply{}, err
	}
	return protocol.ChatReply{MessageText: ev.Summary, MapCommands: []protocol.MapCommand{}}, nil
}

func (o *Orchestrator) shortageTurn(ctx context.Context, intent agents.Intent, prompt string, history []protocol.ChatTurn) (protocol.ChatReply, error) {
	location, err := o.resolveLocation(ctx, intent, prompt, history)
	if err != nil {
		return protocol.ChatReply{}, err
	}

	col, err := o.collect(ctx, location)
	if err != nil {
		return protocol.ChatReply{}, err
	}

	result, err := o.agents.Forecaster.Forecast(ctx, location, col)
	if err != nil {
		return protocol.ChatReply{}, err
	}
	return protocol.ChatReply{MessageText: result.MessageText, MapCommands: result.Commands}, nil
}

// collect fans out to every specialist concurrently. Under the "all"
// policy the first failure cancels the rest and fails the turn; under
// "partial" the turn proceeds with whatever evidence came back, failing
// only when nothing did.
func (o *Orchestrator) collect(ctx context.Context, location string) (agents.Collection, error) {
	type outcome struct {
		name string
		ev   agents.Evidence
		err  error
	}

	outcomes := make([]outcome, len(o.agents.Specialists))
	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range o.agents.Specialists {
		i, sp := i, sp
		g.Go(func() error {
			ev, err := o.runSpecialist(gctx, sp, location)
			outcomes[i] = outcome{name: sp.Name(), ev: ev, err: err}
			if err != nil && o.fanoutPolicy == config.FanoutAll {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return agents.Collection{}, fmt.Errorf("data collection failed: %w", err)
	}

	var col agents.Collection
	for _, out := range outcomes {
		if out.err != nil {
			col.Failed = append(col.Failed, out.name)
			continue
		}
		col.Evidence = append(col.Evidence, out.ev)
	}
	if len(col.Evidence) == 0 {
		return agents.Collection{}, errors.New("data collection failed: no specialist returned evidence")
	}
	return col, nil
}

// runSpecialist applies the per-specialist deadline and records latency
// and failure metrics. A timed-out specialist is a failed specialist.
func (o *Orchestrator) runSpecialist(ctx context.Context, sp agents.Specialist, location string) (agents.Evidence, error) {
	ctx, cancel := context.WithTimeout(ctx, o.specialistTimeout)
	defer cancel()

	start := time.Now()
	ev, err := sp.Run(ctx, location)
	if o.metrics != nil {
		o.metrics.ObserveSpecialistLatency(sp.Name(), time.Since(start))
		if err != nil {
			code := "error"
			if errors.Is(err, context.DeadlineExceeded) {
				code = "timeout"
			}
			o.metrics.SpecialistFailures.WithLabelValues(sp.Name(), code).Inc()
		}
	}
	return ev, err
}

func (o *Orchestrator) resolveLocation(ctx context.Context, intent agents.Intent, prompt string, history []protocol.ChatTurn) (string, error) {
	if intent.Location != "" {
		return intent.Location, nil
	}
	return o.agents.Locator.Extract(ctx, prompt, history)
}

func (o *Orchestrator) loadHistory(ctx context.Context, sessionID string) ([]protocol.ChatTurn, error) {
	records, err := o.memory.History(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]protocol.ChatTurn, 0, len(records))
	for _, rec := range records {
		turns = append(turns, protocol.ChatTurn{
			Role:        rec.Role,
			Text:        rec.Content,
			MapCommands: rec.MapCommands,
		})
	}
	return turns, nil
}

func (o *Orchestrator) publish(cmds []protocol.MapCommand) {
	if o.metrics != nil {
		o.metrics.MapCommands.Add(float64(len(cmds)))
	}
	if o.sink == nil {
		return
	}
	for _, cmd := range cmds {
		o.sink.Publish(cmd)
	}
}

func (o *Orchestrator) countTurn(intent string, err error) {
	if o.metrics == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	o.metrics.Turns.WithLabelValues(intent, outcome).Inc()
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[sessionID] = lock
	}
	return lock
}
