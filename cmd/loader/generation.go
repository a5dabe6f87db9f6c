package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/pkg/statsd"
)

type metricData struct {
	count           uint64 // atomic
	nameFormat      string
	nameCardinality uint
	tagCardinality  []uint
	valueLimit      uint
}

type metricGenerator struct {
	rnd *rand.Rand

	counters metricData
	gauges   metricData
	sets     metricData
	timers   metricData
}

func (md *metricData) genName(r *rand.Rand) string {
	return fmt.Sprintf(md.nameFormat, r.Intn(int(md.nameCardinality)))
}

func (md *metricData) genTags(r *rand.Rand) dogstatsd.Tags {
	if len(md.tagCardinality) == 0 {
		return dogstatsd.NoTags
	}
	pairs := make([]dogstatsd.Tag, 0, len(md.tagCardinality))
	for idx, c := range md.tagCardinality {
		pairs = append(pairs, dogstatsd.Tag{
			Name:  fmt.Sprintf("tag%d", idx),
			Value: strconv.Itoa(r.Intn(int(c))),
		})
	}
	return dogstatsd.KeyedTags(pairs...)
}

func (mg *metricGenerator) nextCounter(client *statsd.Client) {
	atomic.AddUint64(&mg.counters.count, ^uint64(0))
	value := int64(1 + mg.rnd.Intn(int(mg.counters.valueLimit+1)))
	client.Count(mg.counters.genName(mg.rnd), value, 1, mg.counters.genTags(mg.rnd))
}

func (mg *metricGenerator) nextGauge(client *statsd.Client) {
	atomic.AddUint64(&mg.gauges.count, ^uint64(0))
	value := float64(mg.rnd.Intn(int(mg.gauges.valueLimit)))
	client.Gauge(mg.gauges.genName(mg.rnd), value, 1, mg.gauges.genTags(mg.rnd))
}

func (mg *metricGenerator) nextSet(client *statsd.Client) {
	atomic.AddUint64(&mg.sets.count, ^uint64(0))
	member := strconv.Itoa(mg.rnd.Intn(int(mg.sets.valueLimit)))
	client.Set(mg.sets.genName(mg.rnd), member, 1, mg.sets.genTags(mg.rnd))
}

func (mg *metricGenerator) nextTimer(client *statsd.Client) {
	atomic.AddUint64(&mg.timers.count, ^uint64(0))
	value := mg.rnd.Float64() * float64(mg.timers.valueLimit)
	client.TimingMS(mg.timers.genName(mg.rnd), value, 1, mg.timers.genTags(mg.rnd))
}

// next emits one metric through client, false means every count is exhausted.
func (mg *metricGenerator) next(client *statsd.Client) bool {
	// We can safely read these non-atomically, because this goroutine is the only one that writes to them.
	total := mg.counters.count + mg.gauges.count + mg.sets.count + mg.timers.count
	if total == 0 {
		return false
	}

	n := uint64(mg.rnd.Int63n(int64(total)))
	if n < mg.counters.count {
		mg.nextCounter(client)
	} else if n < mg.counters.count+mg.gauges.count {
		mg.nextGauge(client)
	} else if n < mg.counters.count+mg.gauges.count+mg.sets.count {
		mg.nextSet(client)
	} else {
		mg.nextTimer(client)
	}
	return true
}
