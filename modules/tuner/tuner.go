// Package tuner manages the connection lifecycle for internet-radio
// playback: station selection, playlist resolution, reconnect scheduling,
// and status/metadata fan-out to observers.
package tuner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zachfi/tunego/pkg/icy"
	"github.com/zachfi/tunego/pkg/playlist"
	"github.com/zachfi/tunego/pkg/stations"
)

var module = "tuner"

// Player is the local playback collaborator. LoadAndPlay must not block;
// outcomes are reported back through the tuner's ConnectSucceeded,
// MetadataReceived, and Disconnected sinks.
type Player interface {
	LoadAndPlay(url string)
	Stop()
}

// Caster reports whether an external sink (cast session) currently owns
// playback. While active, the tuner skips the local player and waits for
// ExternalSinkConnected instead.
type Caster interface {
	Active() bool
}

// Event identifies what changed; subscribers re-read current state on
// receipt, there is no payload.
type Event int

const (
	// EventStations fires when the station list changes.
	EventStations Event = iota
	// EventState fires when the connection state changes.
	EventState
	// EventStatus fires when the status line or stream title changes.
	EventStatus
)

// Tuner is the station manager service. All mutable session and store state
// is confined to the event queue drained by the service run loop, so
// resolution completions, collaborator callbacks, and user actions can never
// interleave.
type Tuner struct {
	services.Service

	cfg     *Config
	logger  *slog.Logger
	metrics *tunerMetrics

	store    *stations.Store
	persist  stations.Persister
	resolver *playlist.Resolver
	player   Player
	caster   Caster

	queue chan func()

	// Everything below is touched only from the run loop.
	machine     *machine
	sched       *reconnectScheduler
	ingester    icy.Ingester
	current     *stations.Station
	resolvedURL string
	streamTitle string
	manualStop  bool
	lastState   State
	gen         uint64

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// New creates and returns a new Tuner.
func New(cfg Config, logger slog.Logger, persist stations.Persister, player Player, caster Caster, reg prometheus.Registerer) (*Tuner, error) {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnects
	}
	if cfg.ReconnectBackoff == 0 {
		cfg.ReconnectBackoff = defaultReconnectBase
	}
	if cfg.ResolveTimeout == 0 {
		cfg.ResolveTimeout = defaultResolveTimeout
	}

	t := &Tuner{
		cfg:      &cfg,
		logger:   logger.With("module", module),
		metrics:  newMetrics(reg),
		store:    stations.NewStore(),
		persist:  persist,
		resolver: playlist.NewResolver(cfg.ResolveTimeout),
		player:   player,
		caster:   caster,
		queue:    make(chan func(), 256),
		machine:  newMachine(cfg.MaxReconnectAttempts),
		sched:    newReconnectScheduler(cfg.ReconnectBackoff),
		subs:     make(map[chan Event]struct{}),
	}

	t.Service = services.NewBasicService(t.starting, t.running, t.stopping)

	return t, nil
}

func (t *Tuner) starting(ctx context.Context) error {
	list, err := t.persist.LoadStations()
	if err != nil {
		return err
	}
	deleted, err := t.persist.LoadDeletedDefaults()
	if err != nil {
		return err
	}

	t.store.SetDeletedDefaults(deleted)

	if list == nil {
		// First run: seed the built-ins.
		t.store.ResetToDefaults()
		t.logger.Info("seeded default stations", "count", len(t.store.Stations()))
		return t.persistStore()
	}

	t.store.Replace(list)
	return nil
}

func (t *Tuner) running(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-t.queue:
			fn()
		}
	}
}

func (t *Tuner) stopping(_ error) error {
	t.sched.cancel()
	return nil
}

// dispatch hands fn to the run loop; all shared state is mutated there.
func (t *Tuner) dispatch(fn func()) {
	t.queue <- fn
}

// call runs fn on the run loop and waits for it.
func (t *Tuner) call(fn func()) {
	done := make(chan struct{})
	t.dispatch(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Subscribe returns a channel that receives change events. Slow subscribers
// miss events rather than block the tuner; they re-read state on receipt
// anyway.
func (t *Tuner) Subscribe() chan Event {
	ch := make(chan Event, 16)
	t.subsMu.Lock()
	t.subs[ch] = struct{}{}
	t.subsMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription channel.
func (t *Tuner) Unsubscribe(ch chan Event) {
	t.subsMu.Lock()
	delete(t.subs, ch)
	t.subsMu.Unlock()
}

func (t *Tuner) notify(ev Event) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Play makes st the active station and starts connecting. Any in-flight
// resolution or pending reconnect for a previous station is abandoned.
func (t *Tuner) Play(st stations.Station) {
	t.dispatch(func() {
		t.sched.cancel()
		t.gen++

		s := st
		t.current = &s
		t.resolvedURL = ""
		t.streamTitle = ""
		t.manualStop = false
		t.ingester.Reset()

		t.setState(t.machine.transition(evPlay{}))
		// The state value repeats when retuning mid-connect, but the status
		// line carries the new station name.
		t.notify(EventStatus)
		t.logger.Info("tuning", "station", st.Name, "url", st.URL)

		t.resolve(t.gen, st)
	})
}

// Stop tears down the active session. Auto-reconnect stays suppressed until
// the next Play.
func (t *Tuner) Stop() {
	t.dispatch(func() {
		t.gen++
		t.sched.cancel()

		t.manualStop = true
		t.current = nil
		t.resolvedURL = ""
		t.streamTitle = ""

		if t.player != nil {
			t.player.Stop()
		}

		t.setState(t.machine.transition(evStop{}))
		t.logger.Info("stopped")
	})
}

// resolve runs playlist resolution on its own goroutine and marshals the
// result back onto the run loop, where it is discarded if the session
// generation moved on in the meantime.
func (t *Tuner) resolve(gen uint64, st stations.Station) {
	go func() {
		url, err := t.resolver.Resolve(context.Background(), st.URL)
		t.dispatch(func() {
			if gen != t.gen {
				t.logger.Debug("discarding stale resolution", "station", st.Name)
				return
			}
			if err != nil {
				t.metrics.resolutions.WithLabelValues("failed").Inc()
				t.metrics.failures.Inc()
				t.logger.Error("resolution failed", "station", st.Name, "err", err)
				t.setState(t.machine.transition(evResolutionFailed{reason: err.Error()}))
				return
			}

			t.metrics.resolutions.WithLabelValues("ok").Inc()
			if url != st.URL {
				t.logger.Info("resolved playlist to stream URL", "url", url)
			}
			t.resolvedURL = url
			t.startPlayback()
		})
	}()
}

// startPlayback hands the resolved URL to the local player, unless an
// external sink owns playback, in which case the tuner waits for
// ExternalSinkConnected.
func (t *Tuner) startPlayback() {
	if t.caster != nil && t.caster.Active() {
		t.logger.Info("external sink active, awaiting its connect")
		return
	}
	if t.player == nil {
		t.logger.Warn("no playback collaborator configured")
		return
	}
	t.player.LoadAndPlay(t.resolvedURL)
}

// ConnectSucceeded is the playback collaborator's signal that the stream is
// playing.
func (t *Tuner) ConnectSucceeded() {
	t.dispatch(func() {
		if t.current == nil {
			return
		}
		t.setState(t.machine.transition(evConnectSucceeded{}))
	})
}

// ExternalSinkConnected is the casting collaborator's signal that the
// external sink is playing. Any pending reconnect timer is cancelled: were
// it left armed it could fire after the sink owns playback and strand the
// state machine in Connecting with no success event to follow.
func (t *Tuner) ExternalSinkConnected() {
	t.dispatch(func() {
		if t.current == nil {
			return
		}
		t.sched.cancel()
		t.gen++
		t.setState(t.machine.transition(evExternalSinkConnected{}))
	})
}

// MetadataReceived ingests demultiplexed inline metadata fields from the
// playback collaborator. Duplicate titles are suppressed.
func (t *Tuner) MetadataReceived(fields map[string]string) {
	t.dispatch(func() {
		if t.current == nil {
			return
		}
		title, changed := t.ingester.Ingest(fields)
		if !changed {
			return
		}
		t.streamTitle = title
		t.logger.Info("now playing", "title", title)
		t.notify(EventStatus)
	})
}

// Disconnected is the playback collaborator's signal that the stream
// dropped. Non-manual disconnects arm a reconnect while the attempt budget
// lasts.
func (t *Tuner) Disconnected(reason string) {
	t.dispatch(func() {
		if t.current == nil {
			// Already stopped; the collaborator is confirming.
			return
		}
		if _, ok := t.machine.state.(Connecting); ok && t.resolvedURL == "" {
			// Resolution is still in flight, so playback was never handed
			// off; this drop belongs to the previous session.
			return
		}

		st := t.machine.transition(evDisconnected{reason: reason, manual: t.manualStop})
		t.setState(st)

		switch s := st.(type) {
		case Reconnecting:
			t.scheduleReconnect(s.Attempt)
		case Failed:
			t.metrics.failures.Inc()
			t.logger.Error("giving up on stream", "station", t.current.Name, "reason", reason)
		}
	})
}

func (t *Tuner) scheduleReconnect(attempt int) {
	gen := t.gen
	d := t.sched.schedule(attempt, func() {
		t.dispatch(func() {
			t.retry(gen)
		})
	})
	t.metrics.reconnects.Inc()
	t.logger.Info("reconnect scheduled", "attempt", attempt, "delay", d)
}

// retry fires when the reconnect timer elapses. The session may have been
// stopped or retargeted since the timer was armed; the generation check
// makes such late firings a no-op.
func (t *Tuner) retry(gen uint64) {
	if gen != t.gen {
		return
	}
	if _, ok := t.machine.state.(Reconnecting); !ok {
		return
	}

	t.setState(t.machine.transition(evRetryTimer{}))

	// The resolved URL is known-good, it connected before. No re-resolution.
	t.startPlayback()
}

func (t *Tuner) setState(st State) {
	if st == t.lastState {
		return
	}
	t.lastState = st
	t.metrics.setState(st)
	t.notify(EventState)
}

// ConnectionState returns the current connection state. The embedded
// service's State reports the lifecycle state instead.
func (t *Tuner) ConnectionState() State {
	var st State
	t.call(func() { st = t.machine.state })
	return st
}

// Status returns the human-readable status line for the current state.
func (t *Tuner) Status() string {
	var status string
	t.call(func() {
		name := ""
		if t.current != nil {
			name = t.current.Name
		}
		status = StatusText(t.machine.state, name, t.streamTitle, t.cfg.MaxReconnectAttempts)
	})
	return status
}

// Current returns the active station, or nil when stopped.
func (t *Tuner) Current() *stations.Station {
	var cur *stations.Station
	t.call(func() {
		if t.current != nil {
			s := *t.current
			cur = &s
		}
	})
	return cur
}

// Stations returns the station list in display order.
func (t *Tuner) Stations() []stations.Station {
	var list []stations.Station
	t.call(func() { list = t.store.Stations() })
	return list
}

// AddStation appends a station, persists the list, and notifies observers.
func (t *Tuner) AddStation(st stations.Station) error {
	var err error
	t.call(func() {
		t.store.Add(st)
		err = t.persistStore()
		t.notify(EventStations)
	})
	return err
}

// UpdateStation replaces the station sharing the given station's ID.
func (t *Tuner) UpdateStation(st stations.Station) error {
	var err error
	t.call(func() {
		if !t.store.Update(st) {
			return
		}
		err = t.persistStore()
		t.notify(EventStations)
	})
	return err
}

// RemoveStation deletes a station by ID. Removing a built-in default records
// its URL so AddMissingDefaults will not re-add it.
func (t *Tuner) RemoveStation(id string) error {
	var err error
	t.call(func() {
		if _, ok := t.store.Remove(id); !ok {
			return
		}
		err = t.persistStore()
		t.notify(EventStations)
	})
	return err
}

// ResetToDefaults replaces the station list with the built-ins and clears
// the deleted-defaults record.
func (t *Tuner) ResetToDefaults() error {
	var err error
	t.call(func() {
		t.store.ResetToDefaults()
		err = t.persistStore()
		t.notify(EventStations)
	})
	return err
}

// AddMissingDefaults merges absent built-ins into the list, skipping any the
// user deleted. It returns the number added.
func (t *Tuner) AddMissingDefaults() (int, error) {
	var (
		added int
		err   error
	)
	t.call(func() {
		added = t.store.AddMissingDefaults()
		if added == 0 {
			return
		}
		err = t.persistStore()
		t.notify(EventStations)
	})
	return added, err
}

func (t *Tuner) persistStore() error {
	if err := t.persist.SaveStations(t.store.Stations()); err != nil {
		return err
	}
	return t.persist.SaveDeletedDefaults(t.store.DeletedDefaults())
}
