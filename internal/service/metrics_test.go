package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clientfiles/internal/model"
	"clientfiles/internal/repository"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	t.Run("refetch outcomes and storage gauge", func(t *testing.T) {
		svc, store, _ := newTestService(t, Config{Metrics: m})
		expectTree(store, remoteRows())

		require.NoError(t, svc.Refetch(context.Background()))

		assert.Equal(t, 1.0, testutil.ToFloat64(m.refetches))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.refetchFailures))
		assert.Equal(t, 4096.0, testutil.ToFloat64(m.storageUsed))
	})

	t.Run("failed refetch", func(t *testing.T) {
		svc, store, _ := newTestService(t, Config{Metrics: m})
		store.On("ListFiles", mock.Anything, "u1").Return([]model.ClientFile(nil), errors.New("timeout"))

		require.Error(t, svc.Refetch(context.Background()))

		assert.Equal(t, 1.0, testutil.ToFloat64(m.refetchFailures))
	})

	t.Run("mutation failure labelled by op", func(t *testing.T) {
		svc, store, _ := newTestService(t, Config{Metrics: m})
		store.On("Insert", mock.Anything, repository.TableFiles, mock.Anything).Return(errors.New("timeout"))

		_, err := svc.AddFile(context.Background(), FileInput{Name: "Acme"})

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationFailures.WithLabelValues("add_file")))
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		_, err := NewMetrics(reg)
		assert.Error(t, err)
	})
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.refetched(nil)
		m.mutationFailed("add_file")
		m.setStorageUsed(1)
	})
}
