package metrics

import (
	"net/http"

	"esparcraft/internal/domain"
	"esparcraft/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var states = []domain.State{domain.StateOffline, domain.StateStarting, domain.StateOnline, domain.StateStopping}

type Collector struct {
	registry *prometheus.Registry

	state    *prometheus.GaugeVec
	cpu      *prometheus.GaugeVec
	ram      *prometheus.GaugeVec
	online   *prometheus.GaugeVec
	lines    *prometheus.CounterVec
	exits    *prometheus.CounterVec
	joins    *prometheus.CounterVec
	dropped  prometheus.GaugeFunc
	playersN map[string]int
}

func New(dropped func() float64) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esparcraft_server_state",
			Help: "1 for the current lifecycle state of each server",
		}, []string{"server", "state"}),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esparcraft_server_cpu_percent",
			Help: "Process CPU usage normalized to all cores",
		}, []string{"server"}),
		ram: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esparcraft_server_ram_megabytes",
			Help: "Process resident memory",
		}, []string{"server"}),
		online: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esparcraft_players_online",
			Help: "Players currently online",
		}, []string{"server"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esparcraft_console_lines_total",
			Help: "Console lines by category",
		}, []string{"server", "category"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esparcraft_process_exits_total",
			Help: "Process exits by outcome",
		}, []string{"server", "outcome"}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esparcraft_player_joins_total",
			Help: "Player joins",
		}, []string{"server"}),
		playersN: make(map[string]int),
	}
	if dropped == nil {
		dropped = func() float64 { return 0 }
	}
	c.dropped = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "esparcraft_events_dropped",
		Help: "Events dropped because the hub backlog was full",
	}, dropped)
	c.registry.MustRegister(c.state, c.cpu, c.ram, c.online, c.lines, c.exits, c.joins, c.dropped)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var Kinds = []events.Kind{events.KindState, events.KindPerf, events.KindLog, events.KindPlayer, events.KindExit, events.KindConfig}

func (c *Collector) Consume(sub *events.Subscription) {
	for ev := range sub.C() {
		c.Observe(ev)
	}
}

func (c *Collector) Observe(ev events.Event) {
	id := ev.ServerID
	switch ev.Kind {
	case events.KindState:
		for _, s := range states {
			v := 0.0
			if s == ev.State {
				v = 1
			}
			c.state.WithLabelValues(id, string(s)).Set(v)
		}
	case events.KindPerf:
		if ev.Perf == nil {
			return
		}
		if ev.Perf.Available() {
			c.cpu.WithLabelValues(id).Set(*ev.Perf.CPU)
			c.ram.WithLabelValues(id).Set(*ev.Perf.RAMMB)
		} else {
			c.cpu.DeleteLabelValues(id)
			c.ram.DeleteLabelValues(id)
		}
	case events.KindLog:
		if ev.Log != nil {
			c.lines.WithLabelValues(id, ev.Log.Category).Inc()
		}
	case events.KindPlayer:
		if ev.Player == nil {
			return
		}
		if ev.Player.Joined {
			c.playersN[id]++
			c.joins.WithLabelValues(id).Inc()
		} else if c.playersN[id] > 0 {
			c.playersN[id]--
		}
		c.online.WithLabelValues(id).Set(float64(c.playersN[id]))
	case events.KindExit:
		outcome := "clean"
		if ev.ExitCode != nil && *ev.ExitCode != 0 {
			outcome = "error"
		}
		c.exits.WithLabelValues(id, outcome).Inc()
		c.cpu.DeleteLabelValues(id)
		c.ram.DeleteLabelValues(id)
	case events.KindConfig:
		if ev.Removed {
			c.forget(id)
		}
	}
}

func (c *Collector) forget(id string) {
	for _, s := range states {
		c.state.DeleteLabelValues(id, string(s))
	}
	c.cpu.DeleteLabelValues(id)
	c.ram.DeleteLabelValues(id)
	c.online.DeleteLabelValues(id)
	c.joins.DeleteLabelValues(id)
	c.exits.DeleteLabelValues(id, "clean")
	c.exits.DeleteLabelValues(id, "error")
	delete(c.playersN, id)
}
