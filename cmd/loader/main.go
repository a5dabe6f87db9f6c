package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atlassian/dogstatsd/pkg/statsd"
)

func main() {
	opts := parseArgs(os.Args[1:])

	pendingWorkers := make(chan struct{}, opts.Workers)
	metricGenerators := make([]*metricGenerator, 0, opts.Workers)
	for i := uint(0); i < opts.Workers; i++ {
		generator := &metricGenerator{
			rnd: rand.New(rand.NewSource(rand.Int63())),
			counters: metricData{
				nameFormat:      fmt.Sprintf("counter%s", opts.MetricSuffix),
				count:           opts.Counts.Counter / uint64(opts.Workers),
				nameCardinality: opts.NameCard.Counter,
				tagCardinality:  opts.TagCard.Counter,
				valueLimit:      opts.ValueRange.Counter,
			},
			gauges: metricData{
				nameFormat:      fmt.Sprintf("gauge%s", opts.MetricSuffix),
				count:           opts.Counts.Gauge / uint64(opts.Workers),
				nameCardinality: opts.NameCard.Gauge,
				tagCardinality:  opts.TagCard.Gauge,
				valueLimit:      opts.ValueRange.Gauge,
			},
			sets: metricData{
				nameFormat:      fmt.Sprintf("set%s", opts.MetricSuffix),
				count:           opts.Counts.Set / uint64(opts.Workers),
				nameCardinality: opts.NameCard.Set,
				tagCardinality:  opts.TagCard.Set,
				valueLimit:      opts.ValueRange.Set,
			},
			timers: metricData{
				nameFormat:      fmt.Sprintf("timer%s", opts.MetricSuffix),
				count:           opts.Counts.Timer / uint64(opts.Workers),
				nameCardinality: opts.NameCard.Timer,
				tagCardinality:  opts.TagCard.Timer,
				valueLimit:      opts.ValueRange.Timer,
			},
		}
		metricGenerators = append(metricGenerators, generator)
		go sendMetricsWorker(opts, generator, pendingWorkers)
	}

	runningWorkers := opts.Workers
	statusTicker := time.NewTicker(1 * time.Second)
	for runningWorkers > 0 {
		select {
		case <-pendingWorkers:
			runningWorkers--
		case <-statusTicker.C:
			counters := uint64(0)
			gauges := uint64(0)
			sets := uint64(0)
			timers := uint64(0)
			for _, mg := range metricGenerators {
				counters += atomic.LoadUint64(&mg.counters.count)
				gauges += atomic.LoadUint64(&mg.gauges.count)
				sets += atomic.LoadUint64(&mg.sets.count)
				timers += atomic.LoadUint64(&mg.timers.count)
			}
			fmt.Printf("%d counters, %d gauges, %d sets, %d timers\n", counters, gauges, sets, timers)
		}
	}
}

func sendMetricsWorker(opts commandOptions, generator *metricGenerator, chDone chan<- struct{}) {
	client, err := statsd.NewClient(logrus.New(), opts.Target, nil, statsd.Options{
		Namespace:       opts.Namespace,
		Buffered:        true,
		MaxBufferLength: opts.MaxBufferLength,
	})
	if err != nil {
		panic(err)
	}

	rate := opts.Rate / opts.Workers
	if rate == 0 {
		rate = 1
	}
	interval := time.Second / time.Duration(rate)
	next := time.Now().Add(interval)

	for generator.next(client) {
		timeToSend := time.Until(next)
		if timeToSend > 0 {
			time.Sleep(timeToSend)
		}
		next = next.Add(interval)
	}

	if err := client.Close(); err != nil {
		panic(err)
	}
	chDone <- struct{}{}
}
