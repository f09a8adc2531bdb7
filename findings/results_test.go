package findings_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/rdapschema/findings"
)

func TestResults_AddIsSetOnIdentity(t *testing.T) {
	r := findings.NewResults()
	f := findings.New(-10100, "#/a:1", "msg")
	assert.True(t, r.Add(f))
	assert.False(t, r.Add(findings.New(-10100, "#/a:1", "msg")))

	status := 200
	// query metadata is not part of identity
	assert.False(t, r.Add(findings.New(-10100, "#/a:1", "msg", findings.WithQuery("https://x/domain/a", "GET", "application/rdap+json", &status))))
	assert.True(t, r.Add(findings.New(-10100, "#/a:2", "msg")))
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains(f))
}

func TestResults_AllPreservesInsertionOrder(t *testing.T) {
	r := findings.NewResults()
	r.AddAll(
		findings.New(-3, "c", "m"),
		findings.New(-1, "a", "m"),
		findings.New(-3, "c", "m"),
		findings.New(-2, "b", "m"),
	)
	assert.Equal(t, []int{-3, -1, -2}, r.All().Codes())
}

func TestResults_Groups(t *testing.T) {
	r := findings.NewResults()
	r.RegisterGroups("links", "events", "notices")
	r.MarkGroupOK("links")
	r.MarkGroupFailed("events")
	r.MarkGroupOK("events")

	g := r.Groups()
	assert.Equal(t, []string{"events", "links", "notices"}, g.Known)
	assert.Equal(t, []string{"events", "links"}, g.Evaluated)
	assert.Equal(t, []string{"events"}, g.Failed)
	assert.Equal(t, []string{"notices"}, g.NotEvaluated())
}

func TestResults_Clear(t *testing.T) {
	r := findings.NewResults()
	r.Add(findings.New(-1, "a", "m"))
	r.RegisterGroups("x")
	r.MarkGroupFailed("x")
	r.Clear()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.Groups().Known)
	assert.True(t, r.Add(findings.New(-1, "a", "m")))
}

func TestResults_ConcurrentAdd(t *testing.T) {
	r := findings.NewResults()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Add(findings.New(-1, "same", "m"))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, r.Len())
}

func TestList_Summary(t *testing.T) {
	l := findings.List{
		findings.New(-1, "#/a", "m"),
		findings.New(-2, "#/b", "m"),
		findings.New(-3, "#/c", "m"),
		findings.New(-4, "#/d", "m"),
	}
	assert.Equal(t, "-1 at #/a; -2 at #/b; -3 at #/c; ... (total 4)", l.Summary())
	assert.Len(t, l.WithCode(-2), 1)
}
