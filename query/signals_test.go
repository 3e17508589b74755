package query_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-api-client/query"
)

func TestSignalsReachSubscribers(t *testing.T) {
	signals := query.NewSignals()

	var reasons []query.Reason
	signals.Subscribe(func(r query.Reason) {
		reasons = append(reasons, r)
	})

	signals.FocusRegained()
	signals.ConnectivityRegained()

	require.Equal(t, []query.Reason{query.ReasonFocus, query.ReasonReconnect}, reasons)
}

func TestFocusSignalMarksCacheStale(t *testing.T) {
	cache := query.NewCache()
	signals := query.NewSignals()
	cache.BindSignals(signals)

	var calls atomic.Int32
	_, err := cache.Get(context.Background(), "k", staticProducer("v", &calls))
	require.NoError(t, err)

	signals.FocusRegained()

	_, err = cache.Get(context.Background(), "k", staticProducer("v", &calls))
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestReconnectSignalMarksCacheStale(t *testing.T) {
	cache := query.NewCache()
	signals := query.NewSignals()
	cache.BindSignals(signals)

	var calls atomic.Int32
	_, err := cache.Get(context.Background(), "k", staticProducer("v", &calls))
	require.NoError(t, err)

	signals.ConnectivityRegained()

	_, err = cache.Get(context.Background(), "k", staticProducer("v", &calls))
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}
