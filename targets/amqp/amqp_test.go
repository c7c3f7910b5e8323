package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/logfan"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	published []published
	failAfter int // fail once this many messages have been accepted; -1 never
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.failAfter >= 0 && len(f.published) >= f.failAfter {
		return errors.New("channel closed")
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, "logs", "app")
	assert.ErrorIs(t, err, ErrNilChannel)
}

func TestLogRecordsPublishesInOrder(t *testing.T) {
	ch := &fakeChannel{failAfter: -1}
	sink, err := New(ch, "logs", "app.audit")
	require.NoError(t, err)

	records := []logfan.Record{
		logfan.NewRecord("audit", logfan.Information, "login %s", []any{"ada"}, nil),
		logfan.NewExceptionRecord("audit", logfan.Critical, "breach", errors.New("intrusion"), nil, nil),
	}
	require.NoError(t, sink.LogRecords(context.Background(), records))
	require.Len(t, ch.published, 2)

	first := ch.published[0]
	assert.Equal(t, "logs", first.exchange)
	assert.Equal(t, "app.audit", first.key)
	assert.Equal(t, "application/json", first.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, first.msg.DeliveryMode)
	assert.Equal(t, "information", first.msg.Type)
	assert.Equal(t, "audit", first.msg.AppId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(first.msg.Body, &body))
	assert.Equal(t, "login ada", body["message"])

	second := ch.published[1]
	assert.Equal(t, "critical", second.msg.Type)
}

func TestLogRecordsAbortsOnPublishFailure(t *testing.T) {
	ch := &fakeChannel{failAfter: 1}
	sink, err := New(ch, "logs", "app")
	require.NoError(t, err)

	records := []logfan.Record{
		logfan.NewRecord("x", logfan.Information, "one", nil, nil),
		logfan.NewRecord("x", logfan.Information, "two", nil, nil),
		logfan.NewRecord("x", logfan.Information, "three", nil, nil),
	}
	err = sink.LogRecords(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2 of 3")
	assert.Len(t, ch.published, 1)
}
