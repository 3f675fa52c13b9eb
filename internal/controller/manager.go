package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/logging"
)

// Manager runs one Controller per configured shutter and owns their MQTT
// subscriptions. Shutters commonly share sensor topics (one weather station,
// one sun position feed), so each topic is subscribed once and fanned out.
type Manager struct {
	controllers map[string]*Controller
	ids         []string
	mqtt        MQTTClient
	qos         byte
	logger      Logger

	mu     sync.Mutex
	routes map[string][]*Controller
	topics []string
}

// NewManager builds a controller for every shutter.
//
// Parameters:
//   - shutters: Validated shutter configurations
//   - deps: Shared collaborators; Logger is replaced per shutter when log is set
//   - log: Service logger, may be nil
//
// Returns:
//   - *Manager: Ready to Start
func NewManager(shutters []config.ShutterConfig, deps Deps, log *logging.Logger) *Manager {
	m := &Manager{
		controllers: make(map[string]*Controller, len(shutters)),
		ids:         make([]string, 0, len(shutters)),
		mqtt:        deps.MQTT,
		qos:         deps.QoS,
		logger:      deps.Logger,
	}
	if log != nil {
		m.logger = log.ForComponent("manager")
	}
	if m.logger == nil {
		m.logger = noopLogger{}
	}

	for _, sc := range shutters {
		d := deps
		if log != nil {
			d.Logger = log.ForShutter(sc.ID)
		}
		m.controllers[sc.ID] = New(sc, d)
		m.ids = append(m.ids, sc.ID)
	}
	sort.Strings(m.ids)
	return m
}

// Start subscribes every consumed topic and starts all controllers.
// On error the subscriptions made so far are removed.
func (m *Manager) Start(ctx context.Context) error {
	if m.mqtt == nil {
		return ErrMQTTUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.routes = make(map[string][]*Controller)
	for _, id := range m.ids {
		c := m.controllers[id]
		for _, topic := range c.Topics() {
			m.routes[topic] = append(m.routes[topic], c)
		}
	}

	m.topics = m.topics[:0]
	for topic := range m.routes {
		m.topics = append(m.topics, topic)
	}
	sort.Strings(m.topics)

	for i, topic := range m.topics {
		if err := ctx.Err(); err != nil {
			m.unsubscribeLocked(m.topics[:i])
			return err
		}
		if err := m.mqtt.Subscribe(topic, m.qos, m.dispatch); err != nil {
			m.unsubscribeLocked(m.topics[:i])
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
	}

	for _, id := range m.ids {
		if err := m.controllers[id].Start(); err != nil {
			return fmt.Errorf("starting shutter %s: %w", id, err)
		}
	}

	m.logger.Info("shutter controllers started",
		"shutters", len(m.ids),
		"topics", len(m.topics),
	)
	return nil
}

// Stop stops every controller and removes the subscriptions.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.ids {
		m.controllers[id].Stop()
	}
	m.unsubscribeLocked(m.topics)
	m.topics = nil
	m.routes = nil
	m.logger.Info("shutter controllers stopped")
}

// Controller returns the controller of a shutter.
func (m *Manager) Controller(id string) (*Controller, error) {
	c, ok := m.controllers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShutterNotFound, id)
	}
	return c, nil
}

// IDs returns the shutter IDs in sorted order.
func (m *Manager) IDs() []string {
	return append([]string(nil), m.ids...)
}

// dispatch hands a message to every controller consuming its topic.
// Errors are joined and logged by the MQTT client wrapper.
func (m *Manager) dispatch(topic string, payload []byte) error {
	m.mu.Lock()
	targets := m.routes[topic]
	m.mu.Unlock()

	var errs []error
	for _, c := range targets {
		if err := c.HandleMessage(topic, payload); err != nil {
			errs = append(errs, fmt.Errorf("shutter %s: %w", c.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) unsubscribeLocked(topics []string) {
	for _, topic := range topics {
		if err := m.mqtt.Unsubscribe(topic); err != nil {
			m.logger.Warn("unsubscribing", "topic", topic, "error", err)
		}
	}
}
