package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestGame(t *testing.T) {
	t.Helper()
	Register(Definition[testGame]{
		Key:        "svc-game",
		Label:      "Service game",
		DocumentID: "doc1",
		Targets:    gameTargets,
	})
	t.Cleanup(Clear)
}

func newTestService(cfg ServiceConfig, fetcher func() Fetcher) *Service {
	cfg.URLFormat = testURLFormat
	return NewService(cfg, WithFetcherFactory(fetcher))
}

// gatedFetcher blocks every fetch until gate is closed.
func gatedFetcher(gate <-chan struct{}) func() Fetcher {
	return func() Fetcher {
		pages := newGameFetcher()
		return FetchFunc(func(ctx context.Context, url string) (string, error) {
			select {
			case <-gate:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return pages.Fetch(ctx, url)
		})
	}
}

func waitResult(t *testing.T, svc *Service, id string) *ImportResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := svc.GetImportResult(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestService_ListDatasets(t *testing.T) {
	registerTestGame(t)
	svc := newTestService(ServiceConfig{}, func() Fetcher { return newGameFetcher() })

	infos := svc.ListDatasets()
	require.Len(t, infos, 1)
	assert.Equal(t, "svc-game", infos[0].Key)
	assert.Len(t, infos[0].Targets, 2)
}

func TestService_ImportCompletes(t *testing.T) {
	registerTestGame(t)
	svc := newTestService(ServiceConfig{}, func() Fetcher { return newGameFetcher() })

	id, err := svc.StartImport(context.Background(), "svc-game", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ch, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	var last Progress
	for p := range ch {
		last = p
	}
	assert.Equal(t, StateCompleted, last.State)
	assert.Equal(t, 1.0, last.Value)

	result := waitResult(t, svc, id)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "svc-game", result.Dataset)
	assert.Equal(t, "doc1", result.DocumentID)
	assert.Empty(t, result.Error)

	g, ok := result.Container.(*testGame)
	require.True(t, ok)
	assert.Len(t, g.Units, 2)
	assert.Equal(t, 50, g.Config.Health)

	require.NoError(t, svc.WaitForImports(context.Background()))
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestService_SubscribeAfterFinish(t *testing.T) {
	registerTestGame(t)
	svc := newTestService(ServiceConfig{}, func() Fetcher { return newGameFetcher() })

	id, err := svc.StartImport(context.Background(), "svc-game", "other-doc")
	require.NoError(t, err)
	result := waitResult(t, svc, id)
	assert.Equal(t, "other-doc", result.DocumentID)

	ch, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	p, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StateCompleted, p.State)

	_, ok = <-ch
	assert.False(t, ok, "channel is closed once the import finished")
}

func TestService_Abort(t *testing.T) {
	registerTestGame(t)
	gate := make(chan struct{})
	svc := newTestService(ServiceConfig{}, gatedFetcher(gate))

	id, err := svc.StartImport(context.Background(), "svc-game", "")
	require.NoError(t, err)

	pending, err := svc.PollImportResult(id)
	require.NoError(t, err)
	assert.Nil(t, pending, "no result while the fetch is blocked")

	require.NoError(t, svc.AbortImport(id))
	close(gate)

	result := waitResult(t, svc, id)
	assert.Equal(t, StateAborted, result.State)
	assert.Contains(t, result.Error, "import aborted")

	p, err := svc.GetImportProgress(id)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, p.State)

	polled, err := svc.PollImportResult(id)
	require.NoError(t, err)
	assert.Same(t, result, polled)
}

func TestService_TooManyImports(t *testing.T) {
	registerTestGame(t)
	gate := make(chan struct{})
	svc := newTestService(ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond}, gatedFetcher(gate))

	first, err := svc.StartImport(context.Background(), "svc-game", "")
	require.NoError(t, err)

	_, err = svc.StartImport(context.Background(), "svc-game", "")
	assert.ErrorIs(t, err, ErrTooManyImports)

	close(gate)
	waitResult(t, svc, first)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.WaitForImports(ctx))
}

func TestService_Errors(t *testing.T) {
	registerTestGame(t)
	Register(Definition[testGame]{Key: "no-doc", Targets: gameTargets})
	svc := newTestService(ServiceConfig{}, func() Fetcher { return newGameFetcher() })

	_, err := svc.StartImport(context.Background(), "missing", "doc")
	assert.ErrorIs(t, err, ErrUnknownDataset)

	_, err = svc.StartImport(context.Background(), "no-doc", "")
	assert.ErrorIs(t, err, ErrMissingDocument)

	_, err = svc.GetImportProgress("nope")
	assert.ErrorIs(t, err, ErrImportNotFound)
	_, err = svc.SubscribeProgress("nope")
	assert.ErrorIs(t, err, ErrImportNotFound)
	assert.ErrorIs(t, svc.AbortImport("nope"), ErrImportNotFound)
	_, err = svc.GetImportResult(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestService_ResultForgottenAfterRetention(t *testing.T) {
	registerTestGame(t)
	svc := newTestService(ServiceConfig{ResultRetention: 10 * time.Millisecond},
		func() Fetcher { return newGameFetcher() })

	id, err := svc.StartImport(context.Background(), "svc-game", "")
	require.NoError(t, err)
	waitResult(t, svc, id)

	assert.Eventually(t, func() bool {
		_, err := svc.GetImportProgress(id)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestService_DefaultDocumentFallback(t *testing.T) {
	registerTestGame(t)
	Register(Definition[testGame]{Key: "no-doc", Targets: gameTargets})

	fetcher := newGameFetcher()
	svc := newTestService(ServiceConfig{DefaultDocumentID: "shared"}, func() Fetcher { return fetcher })

	id, err := svc.StartImport(context.Background(), "no-doc", "")
	require.NoError(t, err)
	result := waitResult(t, svc, id)

	assert.Equal(t, "shared", result.DocumentID)
	assert.Equal(t, []string{"mem://shared/Units", "mem://shared/Config"}, fetcher.urls)

	// A dataset's own document still wins over the service default.
	id, err = svc.StartImport(context.Background(), "svc-game", "")
	require.NoError(t, err)
	assert.Equal(t, "doc1", waitResult(t, svc, id).DocumentID)
}

func TestService_SlowSubscriberSeesFinalState(t *testing.T) {
	targets := make([]Target[testGame], 5)
	for i := range targets {
		targets[i] = CollectionTarget(fmt.Sprintf("Units%d", i), "Units", newUnitSchema(),
			func(g *testGame) *[]testUnit { return &g.Units })
	}
	Register(Definition[testGame]{Key: "wide", DocumentID: "doc1", Targets: targets})
	t.Cleanup(Clear)

	gate := make(chan struct{})
	svc := newTestService(ServiceConfig{}, gatedFetcher(gate))

	id, err := svc.StartImport(context.Background(), "wide", "")
	require.NoError(t, err)
	ch, err := svc.SubscribeProgress(id)
	require.NoError(t, err)

	// Let the run finish without reading, so the buffer overflows.
	close(gate)
	assert.Equal(t, StateCompleted, waitResult(t, svc, id).State)

	var last Progress
	n := 0
	for p := range ch {
		last = p
		n++
	}
	assert.LessOrEqual(t, n, 16)
	assert.Equal(t, StateCompleted, last.State)
	assert.Equal(t, 1.0, last.Value)
}
