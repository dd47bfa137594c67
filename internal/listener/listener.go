// Package listener tails the part_information topic and logs every message.
// It decodes JSON payloads for inspection only; nothing is written to the
// warehouse.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
)

// ErrNoBrokers is returned when the configuration names no broker.
var ErrNoBrokers = errors.New("no kafka brokers configured")

// Consumer is the subset of *cluster.Consumer the listener uses.
type Consumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan error
	MarkOffset(msg *sarama.ConsumerMessage, metadata string)
	Close() error
}

// newConsumer is a test seam; it joins group on topics starting from the
// oldest retained offset.
var newConsumer = func(brokers []string, group string, topics []string) (Consumer, error) {
	sarama.Logger = log.New(io.Discard, "", 0)
	cfg := cluster.NewConfig()
	cfg.Config.Version = sarama.V0_10_0_0
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	return cluster.NewConsumer(brokers, group, topics, cfg)
}

// Message is one decoded part_information record. Value holds any JSON
// value: objects decode to map[string]any, arrays to []any.
type Message struct {
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
	Key       string `json:"key,omitempty"`
	Value     any    `json:"value"`
}

// Handler receives every decoded message. A returned error is logged and
// does not stop the listener.
type Handler func(Message) error

// Stats counts what a Run saw.
type Stats struct {
	Received int64
	Decoded  int64
	Skipped  int64
	Errors   int64
}

// Listener consumes one topic with one consumer group.
type Listener struct {
	cfg     config.Kafka
	job     string
	log     *zap.SugaredLogger
	handler Handler
	// Max stops Run after this many messages; 0 runs until the context ends.
	Max int64
}

// New returns a Listener. A nil handler only logs.
func New(cfg config.Kafka, job string, log *zap.SugaredLogger, h Handler) *Listener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Listener{cfg: cfg, job: job, log: log, handler: h}
}

// Run consumes until ctx is done, the consumer closes or Max messages
// arrived. Offsets are marked for every message, including undecodable ones.
func (l *Listener) Run(ctx context.Context) (Stats, error) {
	var st Stats
	brokers := l.cfg.BrokerList()
	if len(brokers) == 0 {
		return st, ErrNoBrokers
	}
	c, err := newConsumer(brokers, l.cfg.Group, []string{l.cfg.Topic})
	if err != nil {
		return st, fmt.Errorf("listener: join group %s: %w", l.cfg.Group, err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			l.log.Warnf("listener: close: %v", err)
		}
	}()
	l.log.Infof("listener: consuming topic=%s group=%s brokers=%v", l.cfg.Topic, l.cfg.Group, brokers)

	msgs, errs := c.Messages(), c.Errors()
	for {
		select {
		case <-ctx.Done():
			l.log.Infof("listener: stopped received=%d decoded=%d skipped=%d", st.Received, st.Decoded, st.Skipped)
			return st, nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			st.Errors++
			l.log.Errorf("listener: consumer error: %v", err)
		case msg, ok := <-msgs:
			if !ok {
				return st, fmt.Errorf("listener: messages channel closed")
			}
			st.Received++
			l.handle(msg, &st)
			c.MarkOffset(msg, "")
			if l.Max > 0 && st.Received >= l.Max {
				l.log.Infof("listener: reached max=%d", l.Max)
				return st, nil
			}
		}
	}
}

func (l *Listener) handle(msg *sarama.ConsumerMessage, st *Stats) {
	m, err := Decode(msg)
	if err != nil {
		st.Skipped++
		metrics.RecordRow(l.job, "decode_error", 1)
		l.log.Warnf("listener: partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
		return
	}
	st.Decoded++
	metrics.RecordRow(l.job, "read", 1)
	l.log.Infof("listener: partition=%d offset=%d value=%v", m.Partition, m.Offset, m.Value)
	if l.handler != nil {
		if err := l.handler(m); err != nil {
			l.log.Warnf("listener: handler at offset=%d: %v", m.Offset, err)
		}
	}
}

// Decode parses msg.Value as a JSON value of any kind.
func Decode(msg *sarama.ConsumerMessage) (Message, error) {
	var v any
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return Message{}, fmt.Errorf("decode json: %w", err)
	}
	return Message{Partition: msg.Partition, Offset: msg.Offset, Key: string(msg.Key), Value: v}, nil
}
