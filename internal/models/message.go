package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType is the tag of a push frame.
type MessageType string

const (
	MessageStatsUpdate   MessageType = "stats_update"
	MessageCrawlUpdate   MessageType = "crawl_update"
	MessageMetricsUpdate MessageType = "metrics_update"
)

// ErrMalformedFrame wraps every push frame decoding failure.
var ErrMalformedFrame = errors.New("malformed push frame")

// PushMessage is the closed set of frames the backend pushes. The concrete
// types are StatsUpdate, CrawlUpdate, MetricsUpdate and Unrecognized.
type PushMessage interface {
	Type() MessageType
	pushMessage()
}

// StatsUpdate replaces the dashboard stats.
type StatsUpdate struct {
	Stats DashboardStats
}

// CrawlUpdate replaces the crawl list.
type CrawlUpdate struct {
	Crawls []CrawlSummary
}

// MetricsUpdate replaces the metrics table.
type MetricsUpdate struct {
	Metrics []MetricSample
}

// Unrecognized is a well-formed frame with a tag this client does not know.
type Unrecognized struct {
	Tag     MessageType
	Payload json.RawMessage
}

func (StatsUpdate) Type() MessageType   { return MessageStatsUpdate }
func (CrawlUpdate) Type() MessageType   { return MessageCrawlUpdate }
func (MetricsUpdate) Type() MessageType { return MessageMetricsUpdate }
func (u Unrecognized) Type() MessageType {
	return u.Tag
}

func (StatsUpdate) pushMessage()   {}
func (CrawlUpdate) pushMessage()   {}
func (MetricsUpdate) pushMessage() {}
func (Unrecognized) pushMessage()  {}

type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodePushMessage decodes one push frame. Unknown tags decode to
// Unrecognized; only invalid JSON or a payload that does not fit its tag is
// an error.
func DecodePushMessage(frame []byte) (PushMessage, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch env.Type {
	case MessageStatsUpdate:
		var stats DashboardStats
		if err := decodePayload(env, &stats); err != nil {
			return nil, err
		}
		return StatsUpdate{Stats: stats}, nil
	case MessageCrawlUpdate:
		var crawls []CrawlSummary
		if err := decodePayload(env, &crawls); err != nil {
			return nil, err
		}
		return CrawlUpdate{Crawls: crawls}, nil
	case MessageMetricsUpdate:
		var metrics []MetricSample
		if err := decodePayload(env, &metrics); err != nil {
			return nil, err
		}
		return MetricsUpdate{Metrics: metrics}, nil
	default:
		return Unrecognized{Tag: env.Type, Payload: env.Payload}, nil
	}
}

func decodePayload(env envelope, dst interface{}) error {
	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return fmt.Errorf("%w: %s without payload", ErrMalformedFrame, env.Type)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
	}
	return nil
}

// EncodePushMessage produces the wire form of a message. Used by fake
// backends and tests.
func EncodePushMessage(msg PushMessage) ([]byte, error) {
	var payload interface{}
	switch m := msg.(type) {
	case StatsUpdate:
		payload = m.Stats
	case CrawlUpdate:
		payload = m.Crawls
	case MetricsUpdate:
		payload = m.Metrics
	case Unrecognized:
		payload = m.Payload
	default:
		return nil, fmt.Errorf("unsupported push message %T", msg)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: msg.Type(), Payload: raw})
}
