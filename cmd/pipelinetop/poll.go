package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// dtoMetricFamily and dtoMetric alias the wire types expfmt decodes
// Prometheus text exposition into, so the rest of this file doesn't
// repeat the client_model import path.
type dtoMetricFamily = dto.MetricFamily
type dtoMetric = dto.Metric

// healthzResponse mirrors the JSON shape pipelinectl's "serve" subcommand
// returns from /healthz.
type healthzResponse struct {
	Zone           string   `json:"zone"`
	Deadline       string   `json:"deadline"`
	DeadlineMisses int      `json:"deadlineMisses"`
	ModuleTypes    []string `json:"moduleTypes"`
}

// rampState reports whether one module's named ramp parameter is
// currently in progress, read off the rtpipeline_modules_ramp_active
// gauge.
type rampState struct {
	Module string
	Param  string
	Active bool
}

// snapshot is one poll cycle's worth of dashboard state, assembled from
// a running pipelinectl serve instance's /healthz and /metrics
// endpoints. A non-nil Err means the poll failed; fields the poll did not
// reach are left at their zero values, not carried over from earlier polls.
type snapshot struct {
	FetchedAt      time.Time
	Zone           string
	Deadline       string
	DeadlineMisses int
	ModuleTypes    []string
	Ramps          []rampState
	CPUHeadroom    float64
	PeriodCount    uint64
	PeriodSumSecs  float64
	Err            error
}

// poller periodically scrapes a pipelinectl diagnostics server and
// publishes the result on Snapshots.
type poller struct {
	client    *http.Client
	baseURL   string
	interval  time.Duration
	Snapshots chan snapshot
}

func newPoller(baseURL string, interval time.Duration) *poller {
	return &poller{
		client:    &http.Client{Timeout: interval},
		baseURL:   strings.TrimRight(baseURL, "/"),
		interval:  interval,
		Snapshots: make(chan snapshot, 1),
	}
}

// Run polls until ctx is done, sending one snapshot per interval. It
// never blocks the caller beyond a buffered channel send: a slow
// consumer just misses intermediate snapshots rather than stalling the
// poller.
func (p *poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *poller) pollOnce() {
	snap := snapshot{FetchedAt: time.Now()}

	health, err := p.fetchHealthz()
	if err != nil {
		snap.Err = fmt.Errorf("healthz: %w", err)
		p.publish(snap)
		return
	}
	snap.Zone = health.Zone
	snap.Deadline = health.Deadline
	snap.DeadlineMisses = health.DeadlineMisses
	snap.ModuleTypes = health.ModuleTypes

	families, err := p.fetchMetrics()
	if err != nil {
		snap.Err = fmt.Errorf("metrics: %w", err)
		p.publish(snap)
		return
	}
	snap.CPUHeadroom = gaugeValue(families, "rtpipeline_host_cpu_headroom_percent", nil)
	snap.Ramps = rampStatesFrom(families["rtpipeline_modules_ramp_active"])
	snap.PeriodCount, snap.PeriodSumSecs = histogramTotals(families["rtpipeline_scheduler_period_duration_seconds"])

	p.publish(snap)
}

func (p *poller) publish(snap snapshot) {
	select {
	case p.Snapshots <- snap:
	default:
		select {
		case <-p.Snapshots:
		default:
		}
		p.Snapshots <- snap
	}
}

func (p *poller) fetchHealthz() (*healthzResponse, error) {
	resp, err := p.client.Get(p.baseURL + "/healthz")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out healthzResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *poller) fetchMetrics() (map[string]*dtoMetricFamily, error) {
	resp, err := p.client.Get(p.baseURL + "/metrics")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var parser expfmt.TextParser
	return parser.TextToMetricFamilies(resp.Body)
}

func gaugeValue(families map[string]*dtoMetricFamily, name string, match map[string]string) float64 {
	fam, ok := families[name]
	if !ok {
		return 0
	}
	for _, m := range fam.Metric {
		if !labelsMatch(m, match) {
			continue
		}
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
	}
	return 0
}

func rampStatesFrom(fam *dtoMetricFamily) []rampState {
	if fam == nil {
		return nil
	}
	states := make([]rampState, 0, len(fam.Metric))
	for _, m := range fam.Metric {
		var module, param string
		for _, l := range m.Label {
			switch l.GetName() {
			case "module":
				module = l.GetValue()
			case "param":
				param = l.GetValue()
			}
		}
		active := m.GetGauge() != nil && m.GetGauge().GetValue() != 0
		states = append(states, rampState{Module: module, Param: param, Active: active})
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Module != states[j].Module {
			return states[i].Module < states[j].Module
		}
		return states[i].Param < states[j].Param
	})
	return states
}

func histogramTotals(fam *dtoMetricFamily) (count uint64, sum float64) {
	if fam == nil {
		return 0, 0
	}
	for _, m := range fam.Metric {
		if h := m.GetHistogram(); h != nil {
			count += h.GetSampleCount()
			sum += h.GetSampleSum()
		}
	}
	return count, sum
}

func labelsMatch(m *dtoMetric, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	got := make(map[string]string, len(m.Label))
	for _, l := range m.Label {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
