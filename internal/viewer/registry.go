// Package viewer hosts simulator instances for the site: it creates and
// tracks them, drives their animations in the background, streams state to
// websocket subscribers and records finished runs.
package viewer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yavin-ai/yavin/internal/render"
	"github.com/yavin-ai/yavin/internal/sim"
)

// Registry owns every live demo instance.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance
	settings  Settings
	store     *Store

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates an empty registry. store may be nil, in which case runs
// are not persisted.
func NewRegistry(store *Store, settings Settings) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		instances: make(map[string]*Instance),
		settings:  settings,
		store:     store,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Settings returns the defaults applied to new instances.
func (reg *Registry) Settings() Settings { return reg.settings }

// Store returns the run store, which may be nil.
func (reg *Registry) Store() *Store { return reg.store }

// Create builds a new instance of kind. A zero seed draws from the clock.
func (reg *Registry) Create(kind sim.Kind, seed int64) (*Instance, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if limit := reg.settings.MaxInstances; limit > 0 && len(reg.instances) >= limit {
		return nil, ErrTooManyDemos
	}

	demo := reg.newDemo(kind, seed)
	inst := &Instance{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		demo:      demo,
		subs:      make(map[chan Event]struct{}),
		reg:       reg,
	}
	demo.Observe(inst.publishState)
	reg.instances[inst.ID] = inst
	log.Printf("viewer: created %s demo %s", kind, inst.ID)
	return inst, nil
}

func (reg *Registry) newDemo(kind sim.Kind, seed int64) sim.Demo {
	s := reg.settings
	opts := sim.Options{Seed: seed, HistoryCap: s.HistoryCap}
	switch kind {
	case sim.KindGradient:
		opts.Interval = s.GradientInterval
		g := sim.NewGradientDescent(opts)
		if s.GradientRate != 0 {
			g.SetLearningRate(s.GradientRate)
		}
		return g
	case sim.KindBoundary:
		opts.Interval = s.BoundaryInterval
		d := sim.NewDecisionBoundary(opts)
		if s.BoundaryRate != 0 {
			d.SetLearningRate(s.BoundaryRate)
		}
		d.SetEpochs(s.BoundaryEpochs)
		return d
	case sim.KindNetwork:
		opts.Interval = s.NetworkInterval
		n := sim.NewNetworkTrainer(opts)
		n.SetEpochs(s.NetworkEpochs)
		// The builder page opens with a ready-to-train network.
		for _, l := range []sim.LayerType{sim.LayerInput, sim.LayerHidden, sim.LayerOutput} {
			n.AddLayer(l)
		}
		return n
	default:
		return sim.NewAttentionWeights(opts)
	}
}

// Get looks up an instance by ID.
func (reg *Registry) Get(id string) (*Instance, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	inst, ok := reg.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inst, nil
}

// List returns all instances, oldest first.
func (reg *Registry) List() []*Instance {
	reg.mu.Lock()
	out := make([]*Instance, 0, len(reg.instances))
	for _, inst := range reg.instances {
		out = append(out, inst)
	}
	reg.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Remove stops and forgets an instance.
func (reg *Registry) Remove(id string) error {
	reg.mu.Lock()
	inst, ok := reg.instances[id]
	delete(reg.instances, id)
	reg.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	inst.Stop()
	inst.closeSubscribers()
	log.Printf("viewer: removed demo %s", id)
	return nil
}

// Close stops every running animation and waits for them to return.
func (reg *Registry) Close() {
	reg.cancel()
	reg.wg.Wait()
}

// Instance is one hosted demo.
type Instance struct {
	ID        string
	Kind      sim.Kind
	CreatedAt time.Time

	demo sim.Demo
	reg  *Registry

	mu            sync.Mutex
	animating     bool
	stopRequested bool
	cancelRun     context.CancelFunc
	runDone       chan struct{} // closed when the current animation has finished
	subs          map[chan Event]struct{}
}

// Demo returns the underlying simulator.
func (inst *Instance) Demo() sim.Demo { return inst.demo }

// Running reports whether a background animation is active.
func (inst *Instance) Running() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.animating
}

// Summary returns the API view of the instance.
func (inst *Instance) Summary() Summary {
	return Summary{
		ID:        inst.ID,
		Kind:      inst.Kind,
		CreatedAt: inst.CreatedAt,
		Running:   inst.Running(),
		State:     inst.demo.Snapshot(),
	}
}

// Start launches the demo's animation in the background. It returns false
// when an animation is already running.
func (inst *Instance) Start() (bool, error) {
	if n, ok := inst.demo.(*sim.NetworkTrainer); ok && len(n.State().Layers) < 2 {
		return false, sim.ErrTooFewLayers
	}

	inst.mu.Lock()
	if inst.animating {
		inst.mu.Unlock()
		return false, nil
	}
	reg := inst.reg
	ctx, cancel := context.WithCancel(reg.ctx)
	inst.animating = true
	inst.stopRequested = false
	inst.cancelRun = cancel
	done := make(chan struct{})
	inst.runDone = done
	inst.mu.Unlock()

	reg.wg.Add(1)
	go func() {
		defer reg.wg.Done()
		defer cancel()
		ran := inst.demo.Animate(ctx)

		inst.mu.Lock()
		stopped := inst.stopRequested
		inst.mu.Unlock()
		if ran {
			inst.finishRun(stopped)
		}

		inst.mu.Lock()
		inst.animating = false
		inst.mu.Unlock()
		close(done)
	}()
	return true, nil
}

// Stop requests the running animation to halt after its current step. A
// run that has not reached its first step yet is cancelled through its
// context.
func (inst *Instance) Stop() {
	inst.mu.Lock()
	if inst.animating {
		inst.stopRequested = true
		if inst.cancelRun != nil {
			inst.cancelRun()
		}
	}
	inst.mu.Unlock()
	inst.demo.Stop()
}

// Step advances the demo once. It fails with ErrRunning while an animation
// is active.
func (inst *Instance) Step() (bool, error) {
	if inst.Running() {
		return false, ErrRunning
	}
	done := inst.demo.Advance()
	inst.publishState()
	return done, nil
}

// Reset stops any animation, waits for it to finish and re-initializes the
// demo.
func (inst *Instance) Reset() {
	inst.Stop()
	inst.mu.Lock()
	done := inst.runDone
	inst.mu.Unlock()
	if done != nil {
		<-done
	}
	inst.demo.Reset()
	inst.publishState()
}

// Render draws the current frame to a w×h PNG surface.
func (inst *Instance) Render(w, h int, theme render.Theme) *render.ImageSurface {
	s := render.NewImageSurface(w, h)
	inst.demo.Draw(s, theme)
	return s
}

func (inst *Instance) finishRun(stopped bool) {
	defer inst.publish(Event{Type: "run_end", ID: inst.ID, Kind: inst.Kind, State: inst.demo.Snapshot()})

	store := inst.reg.store
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.Record(ctx, summarizeRun(inst, stopped)); err != nil {
		log.Printf("viewer: recording run for %s: %v", inst.ID, err)
	}
}

// summarizeRun extracts the step count, headline value and outcome of the
// run that just ended.
func summarizeRun(inst *Instance, stopped bool) Run {
	run := Run{InstanceID: inst.ID, Kind: inst.Kind, Status: "completed"}
	if stopped {
		run.Status = "stopped"
	}
	switch d := inst.demo.(type) {
	case *sim.GradientDescent:
		st := d.State()
		run.Steps, run.FinalValue = st.Iteration, st.FX
		if !stopped {
			run.Status = string(st.Status)
		}
	case *sim.DecisionBoundary:
		st := d.State()
		run.Steps, run.FinalValue = st.Epoch, st.Loss
	case *sim.NetworkTrainer:
		st := d.State()
		run.Steps, run.FinalValue = st.Epoch, st.Loss
	case *sim.AttentionWeights:
		st := d.State()
		run.Steps = 1
		if len(st.Weights) > 0 {
			run.FinalValue = st.Weights[st.Selected][st.Selected]
		}
	}
	return run
}

// Subscribe registers for state events. The returned cancel function must be
// called to release the subscription.
func (inst *Instance) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	inst.mu.Lock()
	inst.subs[ch] = struct{}{}
	inst.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			inst.mu.Lock()
			if _, ok := inst.subs[ch]; ok {
				delete(inst.subs, ch)
				close(ch)
			}
			inst.mu.Unlock()
		})
	}
}

func (inst *Instance) publishState() {
	inst.publish(Event{Type: "state", ID: inst.ID, Kind: inst.Kind, State: inst.demo.Snapshot()})
}

// publish fans ev out to subscribers. Slow subscribers miss frames rather
// than stall the animation.
func (inst *Instance) publish(ev Event) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	for ch := range inst.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (inst *Instance) closeSubscribers() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	for ch := range inst.subs {
		delete(inst.subs, ch)
		close(ch)
	}
}
