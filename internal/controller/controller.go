package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-shutter/internal/history"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shutter/internal/shutter"
)

// Input names, matching the keys of the inputs config section.
const (
	InputOutsideIlluminance = "outside_illuminance"
	InputOutsideTemperature = "outside_temperature"
	InputInsideTemperature  = "inside_temperature"
	InputWindow             = "window"
	InputSunAzimuth         = "sun_azimuth"
	InputSunAltitude        = "sun_altitude"
	InputPosition           = "position"
	InputWeekend            = "weekend"
)

// historyTimeout bounds a single history insert.
const historyTimeout = 5 * time.Second

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTClient is the subset of the MQTT client the controller needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// HistoryRecorder stores position decisions.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Telemetry receives decisions and sensor readings for time-series storage.
type Telemetry interface {
	WriteDecision(d influxdb.Decision)
	WriteSensor(shutterID, sensor string, value float64, at time.Time)
}

// Deps are the collaborators of a Controller. Only MQTT is required to
// run; History, Telemetry and Logger may be nil.
type Deps struct {
	MQTT      MQTTClient
	History   HistoryRecorder
	Telemetry Telemetry
	Logger    Logger

	// Clock defaults to the wall clock.
	Clock Clock

	// Location is the site timezone schedules are resolved in. Default: UTC
	Location *time.Location

	// QoS for published commands and status.
	QoS byte

	// Random returns a value in [0, 1) for the output delay. Default: math/rand
	Random func() float64
}

// binding ties an input to the state key it reads.
type binding struct {
	input string
	key   string
}

// Controller connects one shutter engine to the message bus.
//
// It turns bus messages into engine inputs, runs evaluations, sends the
// resulting position to the bridge and keeps the retained status current.
// While a command is being delivered and the actuator drives, the engine is
// paused so position feedback and sensor changes queue up instead of
// causing a second decision mid-travel.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use. MQTT handlers and
//     timers serialise on one mutex; the engine is never shared.
type Controller struct {
	id  string
	cfg config.ShutterConfig

	mqtt      MQTTClient
	history   HistoryRecorder
	telemetry Telemetry
	logger    Logger
	clock     Clock
	loc       *time.Location
	qos       byte
	random    func() float64

	commandTopic string
	routes       map[string][]binding

	mu             sync.Mutex
	engine         *shutter.Engine
	outputTimer    Timer
	unpauseTimer   Timer
	wakeupTimer    Timer
	wakeupAt       time.Time
	recomputeTimer Timer
	lastStatus     []byte
	started        bool
	stopped        bool
}

// New creates a controller for one configured shutter. Call Start to begin
// periodic evaluation.
func New(cfg config.ShutterConfig, deps Deps) *Controller {
	c := &Controller{
		id:           cfg.ID,
		cfg:          cfg,
		mqtt:         deps.MQTT,
		history:      deps.History,
		telemetry:    deps.Telemetry,
		logger:       deps.Logger,
		clock:        deps.Clock,
		loc:          deps.Location,
		qos:          deps.QoS,
		random:       deps.Random,
		commandTopic: mqtt.Topics{}.ShutterCommand(cfg.ID),
		routes:       make(map[string][]binding),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.random == nil {
		c.random = rand.Float64
	}

	for _, in := range []struct {
		name string
		cfg  config.InputConfig
	}{
		{InputOutsideIlluminance, cfg.Inputs.OutsideIlluminance},
		{InputOutsideTemperature, cfg.Inputs.OutsideTemperature},
		{InputInsideTemperature, cfg.Inputs.InsideTemperature},
		{InputWindow, cfg.Inputs.Window},
		{InputSunAzimuth, cfg.Inputs.SunAzimuth},
		{InputSunAltitude, cfg.Inputs.SunAltitude},
		{InputPosition, cfg.Inputs.Position},
		{InputWeekend, cfg.Inputs.Weekend},
	} {
		if in.cfg.Topic == "" {
			continue
		}
		c.routes[in.cfg.Topic] = append(c.routes[in.cfg.Topic], binding{input: in.name, key: in.cfg.Key})
	}

	c.engine = shutter.New(cfg.Engine(), shutter.WithClock(c.now))
	return c
}

// ID returns the shutter ID.
func (c *Controller) ID() string {
	return c.id
}

// Topics returns every topic the controller consumes: its input topics
// followed by its command topic.
func (c *Controller) Topics() []string {
	topics := make([]string, 0, len(c.routes)+1)
	for topic := range c.routes {
		topics = append(topics, topic)
	}
	return append(topics, c.commandTopic)
}

// Start schedules the periodic recompute and runs the first evaluation.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return nil
	}
	c.started = true
	c.scheduleRecomputeLocked()
	c.evaluateLocked(c.now())

	c.logger.Info("shutter controller started",
		"inputs", len(c.routes),
		"recompute", c.cfg.Recompute(),
	)
	return nil
}

// Stop cancels every pending timer. A stopped controller ignores messages.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.stopTimer(&c.outputTimer)
	c.stopTimer(&c.unpauseTimer)
	c.stopTimer(&c.wakeupTimer)
	c.stopTimer(&c.recomputeTimer)
	c.logger.Info("shutter controller stopped")
}

// HandleMessage routes a bus message to the command handler or to every
// input bound to the topic, then evaluates once.
//
// Parameters:
//   - topic: Topic the message arrived on
//   - payload: Raw message body
//
// Returns:
//   - error: ErrInvalidPayload, ErrUnknownCommand or ErrStopped; nil for
//     topics the controller does not consume
func (c *Controller) HandleMessage(topic string, payload []byte) error {
	if topic == c.commandTopic {
		return c.HandleCommand(payload)
	}

	bindings := c.routes[topic]
	if len(bindings) == 0 {
		return nil
	}

	values := make([]any, len(bindings))
	for i, b := range bindings {
		v, err := inputValue(payload, b.key)
		if err != nil {
			return fmt.Errorf("input %s: %w", b.input, err)
		}
		values[i] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}

	now := c.now()
	var errs []error
	for i, b := range bindings {
		if err := c.applyInputLocked(b.input, values[i], now); err != nil {
			errs = append(errs, fmt.Errorf("input %s: %w", b.input, err))
		}
	}
	c.evaluateLocked(now)
	return errors.Join(errs...)
}

// HandleCommand applies an operator command and evaluates.
func (c *Controller) HandleCommand(payload []byte) error {
	msg, err := decodeControl(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}

	now := c.now()
	switch msg.Command {
	case CommandUpdate:
	case CommandUnpause:
		c.stopTimer(&c.unpauseTimer)
		c.engine.Unpause()
	case CommandClear:
		c.stopTimer(&c.outputTimer)
		c.stopTimer(&c.unpauseTimer)
		c.engine.Clear()
		c.lastStatus = nil
	case CommandSetFixedTime:
		text, err := asText(msg.Value)
		if err != nil {
			return err
		}
		if text == nil {
			return fmt.Errorf("%w: set_fixed_time needs a value", ErrInvalidPayload)
		}
		t, err := parseFixedTime(*text, now)
		if err != nil {
			return err
		}
		c.engine.SetFixedTime(&t)
	case CommandUnsetFixedTime:
		c.engine.SetFixedTime(nil)
	case CommandUnsetManualPosition:
		c.engine.SetManualPosition(nil)
	case CommandConfigure:
		if msg.Key == "" {
			return fmt.Errorf("%w: configure needs a key", ErrInvalidPayload)
		}
		value, err := asText(msg.Value)
		if err != nil {
			return err
		}
		c.engine.SetProperty(msg.Key, value)
	case CommandOutput:
		c.resendLocked(now)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Command)
	}

	c.logger.Debug("command applied", "command", msg.Command, "key", msg.Key)
	c.evaluateLocked(now)
	return nil
}

// Update runs an evaluation now.
func (c *Controller) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.evaluateLocked(c.now())
}

// State returns the engine snapshot.
func (c *Controller) State() shutter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.State(c.now())
}

// Summary returns the one-line status of the engine.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Summary()
}

func (c *Controller) now() time.Time {
	return c.clock.Now().In(c.loc)
}

// applyInputLocked hands one decoded value to the engine.
func (c *Controller) applyInputLocked(input string, v any, now time.Time) error {
	switch input {
	case InputWindow:
		c.engine.SetWindow(string(asWindow(v)))
		return nil
	case InputWeekend:
		b, err := asBool(v)
		if err != nil {
			return err
		}
		c.engine.SetWeekend(b)
		return nil
	}

	n, err := asNumber(v)
	if err != nil {
		return err
	}
	switch input {
	case InputOutsideIlluminance:
		c.engine.SetOutsideIlluminance(n)
	case InputOutsideTemperature:
		c.engine.SetOutsideTemperature(n)
	case InputInsideTemperature:
		c.engine.SetInsideTemperature(n)
	case InputSunAzimuth:
		c.engine.SetSunAzimuth(n)
	case InputSunAltitude:
		c.engine.SetSunAltitude(n)
	case InputPosition:
		c.engine.SetManualPosition(n)
	default:
		return fmt.Errorf("%w: unknown input %q", ErrInvalidPayload, input)
	}

	if n != nil && c.telemetry != nil {
		c.telemetry.WriteSensor(c.id, input, *n, now)
	}
	return nil
}

// evaluateLocked runs one engine pass and acts on the decision.
func (c *Controller) evaluateLocked(now time.Time) {
	if c.engine.Paused() {
		c.publishStatusLocked(now)
		return
	}

	d := c.engine.Update(now)
	c.scheduleWakeupLocked(d.Wakeup)

	if d.Changed() {
		c.logger.Info("shutter position changed",
			"mode", c.engine.Mode(),
			"special", c.engine.Special(),
			"position", *d.Output,
			"summary", c.engine.Summary(),
		)
		c.recordLocked(d, now)
		c.scheduleOutputLocked(*d.Output)
	}

	c.publishStatusLocked(now)
}

// scheduleOutputLocked pauses the engine and sends value after the random
// delay. The engine resumes once the actuator had time to drive.
func (c *Controller) scheduleOutputLocked(value float64) {
	c.engine.Pause()
	c.stopTimer(&c.outputTimer)
	c.stopTimer(&c.unpauseTimer)

	delay := c.randomDelay()
	if delay <= 0 {
		c.sendLocked(value)
		return
	}

	c.logger.Debug("output delayed", "delay", delay)
	c.afterLocked(&c.outputTimer, delay, func() {
		c.sendLocked(value)
	})
}

func (c *Controller) sendLocked(value float64) {
	c.publishCommandLocked(value, c.now())
	c.afterLocked(&c.unpauseTimer, c.cfg.DriveTime(), func() {
		c.engine.Unpause()
		c.evaluateLocked(c.now())
	})
}

// resendLocked publishes the committed position again without pausing.
func (c *Controller) resendLocked(now time.Time) {
	pos := c.engine.Position()
	if pos == nil {
		c.logger.Debug("output requested without a committed position")
		return
	}
	value := c.engine.Config().Output.Scale(*pos)
	if math.IsNaN(value) {
		return
	}
	c.publishCommandLocked(value, now)
}

func (c *Controller) randomDelay() time.Duration {
	lo, hi := c.cfg.DelayRange()
	if hi <= 0 {
		return 0
	}
	return lo + time.Duration(c.random()*float64(hi-lo))
}

func (c *Controller) publishCommandLocked(value float64, now time.Time) {
	if c.mqtt == nil {
		c.logger.Warn("no mqtt client, position not sent", "position", value)
		return
	}

	msg := CommandMessage{
		ID:         uuid.NewString(),
		Timestamp:  now.UTC(),
		DeviceID:   c.cfg.Output.Device,
		Command:    commandSetPosition,
		Parameters: map[string]any{"position": value},
		Source:     commandSource,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encoding position command", "error", err)
		return
	}

	topic := mqtt.Topics{}.BridgeCommand(c.cfg.Output.Protocol, c.cfg.Output.Device)
	if err := c.mqtt.Publish(topic, payload, c.qos, false); err != nil {
		c.logger.Error("publishing position command", "topic", topic, "error", err)
		return
	}
	c.logger.Info("position command published", "topic", topic, "position", value, "command_id", msg.ID)
}

// publishStatusLocked emits the retained snapshot per status_frequency.
func (c *Controller) publishStatusLocked(now time.Time) {
	freq := c.cfg.StatusFrequency()
	if freq == config.StatusNever || c.mqtt == nil {
		return
	}

	state := c.engine.State(now)
	body, err := json.Marshal(state)
	if err != nil {
		c.logger.Error("encoding status", "error", err)
		return
	}
	if freq == config.StatusChange && bytes.Equal(body, c.lastStatus) {
		return
	}

	payload, err := json.Marshal(StatusMessage{
		ShutterID: c.id,
		Name:      c.cfg.Name,
		Timestamp: now.UTC(),
		State:     state,
	})
	if err != nil {
		c.logger.Error("encoding status", "error", err)
		return
	}
	if err := c.mqtt.Publish(mqtt.Topics{}.ShutterState(c.id), payload, c.qos, true); err != nil {
		c.logger.Warn("publishing status", "error", err)
		return
	}
	c.lastStatus = body
}

// recordLocked stores a position change in history and telemetry.
func (c *Controller) recordLocked(d shutter.Decision, now time.Time) {
	if d.Position == nil {
		return
	}

	mode := c.engine.Mode()
	special := c.engine.Special()
	reason := joinReasons(c.engine.ModeReason(), c.engine.SpecialReason())
	if mode == shutter.ModeManual {
		reason = "manual position"
	}

	if c.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		err := c.history.Record(ctx, history.Entry{
			ShutterID: c.id,
			Mode:      string(mode),
			Special:   string(special),
			Reason:    reason,
			Position:  *d.Position,
			Output:    d.Output,
			CreatedAt: now,
		})
		cancel()
		if err != nil {
			c.logger.Error("recording history", "error", err)
		}
	}

	if c.telemetry != nil {
		c.telemetry.WriteDecision(influxdb.Decision{
			ShutterID: c.id,
			Mode:      string(mode),
			Special:   string(special),
			Reason:    reason,
			Position:  *d.Position,
			Output:    d.Output,
			Manual:    mode == shutter.ModeManual,
			Time:      now,
		})
	}
}

// scheduleWakeupLocked arms a one-shot evaluation at the next schedule
// boundary so schedule-only transitions happen on time.
func (c *Controller) scheduleWakeupLocked(at time.Time) {
	// A fixed time freezes the engine clock, so its boundaries do not
	// map onto the wall clock.
	if _, fixed := c.engine.FixedTime(); fixed {
		at = time.Time{}
	}
	if c.wakeupTimer != nil && at.Equal(c.wakeupAt) {
		return
	}
	c.stopTimer(&c.wakeupTimer)
	c.wakeupAt = time.Time{}

	if at.IsZero() {
		return
	}
	delay := at.Sub(c.now())
	if delay <= 0 {
		return
	}
	c.wakeupAt = at
	c.afterLocked(&c.wakeupTimer, delay, func() {
		c.wakeupAt = time.Time{}
		c.evaluateLocked(c.now())
	})
}

func (c *Controller) scheduleRecomputeLocked() {
	c.afterLocked(&c.recomputeTimer, c.cfg.Recompute(), func() {
		c.evaluateLocked(c.now())
		c.scheduleRecomputeLocked()
	})
}

// afterLocked replaces the timer in slot with one running f after d.
// f runs under the lock and only while slot still holds its timer, so a
// callback that fired while being stopped or replaced does nothing.
func (c *Controller) afterLocked(slot *Timer, d time.Duration, f func()) {
	c.stopTimer(slot)

	var t Timer
	t = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stopped || *slot != t {
			return
		}
		*slot = nil
		f()
	})
	*slot = t
}

func (c *Controller) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// joinReasons combines the mode and special reasons for history.
func joinReasons(mode, special string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{mode, special} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " & ")
}
