package queue_test

import (
	"testing"

	"github.com/yeisme/cropvault/pkg/queue"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := queue.DatasetProcessedPayload{
		Dataset: queue.DatasetRef{
			PublicID: "01J9ZBQJ4B3V8Q6W0XK5T2N7RD",
			User:     "alice@example.com",
			FileName: "season.xlsx",
		},
		TotalRecords: 42,
		Created:      40,
		Updated:      2,
	}

	env := queue.Message[queue.DatasetProcessedPayload]{
		Header: queue.NewEventHeader(queue.TopicDatasetProcessed,
			queue.WithProducer("cropvault"), queue.WithTraceID("trace-1")),
		Payload: payload,
	}

	data, err := queue.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := queue.Decode[queue.DatasetProcessedPayload](data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if msg.Header.Topic != queue.TopicDatasetProcessed {
		t.Fatalf("topic = %q", msg.Header.Topic)
	}

	if msg.Header.Producer != "cropvault" || msg.Header.TraceID != "trace-1" {
		t.Fatalf("header = %+v", msg.Header)
	}

	if msg.Payload.TotalRecords != 42 || msg.Payload.Dataset.User != "alice@example.com" {
		t.Fatalf("payload = %+v", msg.Payload)
	}
}

func TestParseWatermillMessage(t *testing.T) {
	payload := queue.ImageMatchedPayload{
		Dataset:    queue.DatasetRef{PublicID: "01J9ZBQJ4B3V8Q6W0XK5T2N7RD", User: "alice@example.com"},
		ImageCount: 3,
	}

	msg, err := queue.NewWatermillMessage(queue.TopicImageMatched, payload)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if msg.UUID == "" {
		t.Fatal("message uuid empty")
	}

	env, err := queue.ParseImageMatched(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Payload.ImageCount != 3 {
		t.Fatalf("payload = %+v", env.Payload)
	}

	if env.Header.Version != queue.PayloadVersionV1 {
		t.Fatalf("version = %q", env.Header.Version)
	}
}
