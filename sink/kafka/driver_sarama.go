package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"

	"github.com/skyfeed/adsb-ingest/internal/logging"
	"github.com/skyfeed/adsb-ingest/internal/telemetry"
	"github.com/skyfeed/adsb-ingest/sink"
	"github.com/skyfeed/adsb-ingest/source"
)

// driver publishes record batches through a sarama async producer.
//
// Publish enqueues every record, then blocks until the broker has acked
// them all or the flush timeout expires. Per-send acks are drained on a
// side goroutine for observability; an individual ack callback never
// fails a batch by itself — only a send error or the timeout does.
type driver struct {
	cfg Config
	p   sarama.AsyncProducer

	mu      sync.Mutex
	gen     uint64 // current batch; acks carry the value they were sent with
	pending int
	sendErr error
	done    chan struct{} // closed when pending reaches 0
	closed  chan struct{}
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	d.cfg = cfg
	return nil
}

// Connect acquires the producer with bounded fixed-delay retries. The
// loop never starts until this succeeds, so fetched data is never
// buffered without a broker to deliver it to.
func (d *driver) Connect(ctx context.Context) error {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(d.cfg.Acks)
	sc.Producer.Retry.Max = d.cfg.RetryMax
	sc.Producer.Retry.Backoff = d.cfg.RetryBackoff
	sc.Producer.Flush.Frequency = d.cfg.Linger
	sc.Producer.Flush.Bytes = d.cfg.BatchBytes
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Net.MaxOpenRequests = 1

	op := func() error {
		p, err := sarama.NewAsyncProducer(d.cfg.Brokers, sc)
		if err != nil {
			logging.L().Warn("waiting for kafka", "brokers", d.cfg.Brokers, "err", err)
			return err
		}
		d.p = p
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(d.cfg.ConnectInterval), d.cfg.ConnectRetries)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("kafka-sink: broker unreachable: %w", err)
	}
	logging.L().Info("connected to kafka", "brokers", d.cfg.Brokers)

	d.closed = make(chan struct{})
	go d.drain()
	return nil
}

func (d *driver) Publish(ctx context.Context, topic string, batch source.Batch) error {
	if len(batch) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(batch))
	for _, rec := range batch {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("kafka-sink: encode record: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   recordKey(rec),
			Value: sarama.ByteEncoder(val),
		})
	}

	done := make(chan struct{})
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.pending = len(msgs)
	d.sendErr = nil
	d.done = done
	d.mu.Unlock()

	for _, m := range msgs {
		m.Metadata = gen
		d.p.Input() <- m
	}

	select {
	case <-done:
	case <-time.After(d.cfg.FlushTimeout):
		d.abandon()
		return fmt.Errorf("kafka-sink: flush of %d records to %q timed out after %s",
			len(msgs), topic, d.cfg.FlushTimeout)
	case <-ctx.Done():
		d.abandon()
		return ctx.Err()
	}

	d.mu.Lock()
	err := d.sendErr
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("kafka-sink: publish to %q: %w", topic, err)
	}
	logging.L().Info("published batch", "topic", topic, "records", len(msgs))
	telemetry.RecordsPublished.Add(float64(len(msgs)))
	return nil
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	err := d.p.Close()
	if d.closed != nil {
		<-d.closed
	}
	d.p = nil
	return err
}

// drain consumes per-send acks until the producer channels close.
func (d *driver) drain() {
	defer close(d.closed)
	succ, errs := d.p.Successes(), d.p.Errors()
	for succ != nil || errs != nil {
		select {
		case msg, ok := <-succ:
			if !ok {
				succ = nil
				continue
			}
			logging.L().Debug("ack", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			d.resolve(msg.Metadata, nil)
		case perr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.L().Error("async send failed", "topic", perr.Msg.Topic, "err", perr.Err)
			telemetry.PublishErrors.Inc()
			d.resolve(perr.Msg.Metadata, perr.Err)
		}
	}
}

func (d *driver) resolve(meta any, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Acks from an abandoned or earlier batch are observability only;
	// they must not settle the batch currently in flight.
	if gen, ok := meta.(uint64); !ok || gen != d.gen {
		return
	}
	if err != nil && d.sendErr == nil {
		d.sendErr = err
	}
	if d.pending == 0 {
		return
	}
	d.pending--
	if d.pending == 0 && d.done != nil {
		close(d.done)
		d.done = nil
	}
}

// abandon drops accounting for a batch the caller gave up on; late acks
// still get logged by drain but no longer signal anyone.
func (d *driver) abandon() {
	d.mu.Lock()
	d.gen++ // outstanding acks become stale
	d.pending = 0
	d.done = nil
	d.mu.Unlock()
}

// recordKey picks the airframe identifier so one aircraft stays on one
// partition.
func recordKey(rec source.Record) sarama.Encoder {
	for _, k := range []string{"hex", "icao24"} {
		if s, ok := rec[k].(string); ok && s != "" {
			return sarama.StringEncoder(s)
		}
	}
	return nil
}

func init() { sink.Register("kafka", func() sink.Publisher { return &driver{} }) }
