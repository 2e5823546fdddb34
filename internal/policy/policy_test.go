package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timopomer/splendor-ai/engine"
	"github.com/timopomer/splendor-ai/internal/view"
)

func legalFixture(t *testing.T) (view.GameView, []engine.Action) {
	t.Helper()
	g, err := engine.NewGame(2, 42)
	require.NoError(t, err)
	legal := g.LegalActions()
	require.NotEmpty(t, legal)
	return view.Project(g, 0), legal
}

func TestRandomDecidesWithinLegalSet(t *testing.T) {
	v, legal := legalFixture(t)
	p := NewRandom(1)

	for i := 0; i < 50; i++ {
		a, err := p.Decide(context.Background(), v, legal)
		require.NoError(t, err)
		assert.Contains(t, legal, a)
	}
}

func TestRandomRejectsEmptyLegalSet(t *testing.T) {
	v, _ := legalFixture(t)
	_, err := NewRandom(1).Decide(context.Background(), v, nil)
	assert.Error(t, err)
}

func TestRandomSeedReproducible(t *testing.T) {
	v, legal := legalFixture(t)
	a, b := NewRandom(9), NewRandom(9)
	for i := 0; i < 20; i++ {
		x, _ := a.Decide(context.Background(), v, legal)
		y, _ := b.Decide(context.Background(), v, legal)
		assert.Equal(t, x, y)
	}
}

func TestRemoteDecide(t *testing.T) {
	v, legal := legalFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req decideRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.LegalActions, len(legal))
		assert.Equal(t, 0, req.View.YourSeat)
		json.NewEncoder(w).Encode(decideResponse{ActionIndex: 2})
	}))
	defer srv.Close()

	a, err := NewRemote(srv.URL).Decide(context.Background(), v, legal)
	require.NoError(t, err)
	assert.Equal(t, legal[2], a)
}

func TestRemoteRejectsOutOfRangeIndex(t *testing.T) {
	v, legal := legalFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(decideResponse{ActionIndex: len(legal)})
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL).Decide(context.Background(), v, legal)
	assert.Error(t, err)
}

func TestRemoteHonorsContextDeadline(t *testing.T) {
	v, legal := legalFixture(t)
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewRemote(srv.URL).Decide(ctx, v, legal)
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	f := Factory{}
	assert.True(t, f.Supported(IDRandom))
	assert.False(t, f.Supported(IDLearned), "learned unsupported without an endpoint")
	assert.False(t, f.Supported("minimax"))

	_, err := f.New(IDLearned, 0)
	assert.Error(t, err)

	f = Factory{LearnedURL: "http://localhost:9999/decide"}
	assert.True(t, f.Supported(IDLearned))
	p, err := f.New(IDLearned, 0)
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, p)
}
