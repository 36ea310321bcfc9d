package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/football-stats-scraper/internal/store"
	"github.com/tyler180/football-stats-scraper/internal/whoscored"
)

const header = `<tr><th>Player</th><th>CM</th><th>KG</th><th>Apps</th><th>Mins</th><th>Goals</th><th>Assists</th>` +
	`<th>Yel</th><th>Red</th><th>SpG</th><th>PS%</th><th>AerialsWon</th><th>MotM</th><th>Rating</th></tr>`

// page renders a stats grid with one row per player identity. Stats are
// derived from the row index so records are distinguishable.
func page(players ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="grid"><thead>` + header + `</thead><tbody>`)
	for i, p := range players {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>180</td><td>75</td><td>%d</td><td>900</td><td>%d</td>"+
			"<td>1</td><td>2</td><td>0</td><td>1.5</td><td>80.5</td><td>0.5</td><td>1</td><td>7.1</td></tr>", p, 10+i, i)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

type fakeRenderer struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func teams(names ...string) []whoscored.TeamSource {
	out := make([]whoscored.TeamSource, len(names))
	for i, n := range names {
		out[i] = whoscored.TeamSource{Name: n, URL: "https://example.test/" + whoscored.Slug(n)}
	}
	return out
}

func newTestRunner(r *fakeRenderer, sink store.Sink, concurrency int) *Runner {
	run := NewRunner(Config{TableSelector: "#grid", CombinedName: "all_stats", Concurrency: concurrency}, r, sink, nil)
	run.sleep = func(context.Context, time.Duration) error { return nil }
	return run
}

func names(ds whoscored.Dataset) []string {
	out := make([]string, len(ds))
	for i, r := range ds {
		out[i] = r.Team + "/" + r.Name
	}
	return out
}

func TestRun_BatchIsolation(t *testing.T) {
	ts := teams("Alpha", "Beta", "Gamma")
	r := &fakeRenderer{pages: map[string]string{
		ts[0].URL: page("1 Ann Able 20, Forward", "2 Bob Baker 21, Defender"),
		ts[1].URL: `<html><body><p>maintenance</p></body></html>`,
		ts[2].URL: page("3 Cid Cole 22, Goalkeeper"),
	}}
	mem := &store.Memory{}

	res, err := newTestRunner(r, mem, 1).Run(context.Background(), ts)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "Beta", res.Failed[0].Team.Name)
	assert.Equal(t, StageExtract, res.Failed[0].Stage)
	assert.True(t, errors.Is(res.Failed[0].Err, whoscored.ErrTableNotFound))
	require.Len(t, res.Succeeded, 2)

	_, ok := mem.Get("alpha_stats")
	assert.True(t, ok)
	_, ok = mem.Get("beta_stats")
	assert.False(t, ok)
	_, ok = mem.Get("gamma_stats")
	assert.True(t, ok)

	combined, ok := mem.Get("all_stats")
	require.True(t, ok)
	assert.True(t, combined.Combined)
	assert.Equal(t, []string{"Alpha/Ann Able", "Alpha/Bob Baker", "Gamma/Cid Cole"}, names(combined.Records))
}

func TestRun_CombinedOrdering(t *testing.T) {
	ts := teams("A", "B")
	r := &fakeRenderer{pages: map[string]string{
		ts[0].URL: page("1 A One 20, Forward", "2 A Two 20, Forward"),
		ts[1].URL: page("3 B One 20, Forward", "4 B Two 20, Forward"),
	}}
	mem := &store.Memory{}

	res, err := newTestRunner(r, mem, 1).Run(context.Background(), ts)
	require.NoError(t, err)

	a, _ := mem.Get("a_stats")
	b, _ := mem.Get("b_stats")
	want := append(append(whoscored.Dataset{}, a.Records...), b.Records...)
	if diff := cmp.Diff(want, res.Combined); diff != "" {
		t.Fatalf("combined mismatch (-want +got):\n%s", diff)
	}
	combined, _ := mem.Get("all_stats")
	assert.Equal(t, want, combined.Records)
	assert.Equal(t, []string{"a_stats", "b_stats", "all_stats"}, artifactNames(mem))
}

func artifactNames(m *store.Memory) []string {
	var out []string
	for _, a := range m.Artifacts {
		out = append(out, a.Name)
	}
	return out
}

func TestRun_NoSuccessNoCombined(t *testing.T) {
	ts := teams("A", "B")
	driver := errors.Mark(errors.New("chrome crashed"), whoscored.ErrDriver)
	r := &fakeRenderer{errs: map[string]error{ts[0].URL: driver, ts[1].URL: driver}}
	mem := &store.Memory{}

	res, err := newTestRunner(r, mem, 1).Run(context.Background(), ts)
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, StageRender, res.Failed[0].Stage)
	assert.Empty(t, mem.Artifacts)
}

func TestRun_SchemaMismatchSkipsTeam(t *testing.T) {
	ts := teams("A", "B")
	r := &fakeRenderer{pages: map[string]string{
		ts[0].URL: `<html><body><table id="grid"><tr><th>Player</th></tr><tr><td>1 X Y 20, Forward</td></tr></table></body></html>`,
		ts[1].URL: page("3 B One 20, Forward"),
	}}
	mem := &store.Memory{}

	res, err := newTestRunner(r, mem, 1).Run(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, StageNormalize, res.Failed[0].Stage)
	assert.True(t, errors.Is(res.Failed[0].Err, whoscored.ErrSchemaMismatch))
	assert.Len(t, res.Combined, 1)
}

type flakySink struct {
	store.Memory
	failOn string
}

func (f *flakySink) Put(ctx context.Context, a store.Artifact) error {
	if a.Name == f.failOn {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, a)
}

func TestRun_SinkFailureMarksTeamOnly(t *testing.T) {
	ts := teams("A", "B")
	r := &fakeRenderer{pages: map[string]string{
		ts[0].URL: page("1 A One 20, Forward"),
		ts[1].URL: page("2 B One 20, Forward"),
	}}
	sink := &flakySink{failOn: "a_stats"}

	res, err := newTestRunner(r, sink, 1).Run(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, StagePersist, res.Failed[0].Stage)
	assert.True(t, errors.Is(res.Failed[0].Err, whoscored.ErrPersist))
	assert.Len(t, res.Combined, 2)

	_, ok := sink.Get("all_stats")
	assert.True(t, ok)
}

func TestRun_CombinedWriteFailure(t *testing.T) {
	ts := teams("A")
	r := &fakeRenderer{pages: map[string]string{ts[0].URL: page("1 A One 20, Forward")}}
	sink := &flakySink{failOn: "all_stats"}

	_, err := newTestRunner(r, sink, 1).Run(context.Background(), ts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, whoscored.ErrPersist))
}

func TestRun_DelayBetweenTeamsOnly(t *testing.T) {
	ts := teams("A", "B", "C")
	r := &fakeRenderer{pages: map[string]string{}}
	for _, tm := range ts {
		r.pages[tm.URL] = page("1 X Y 20, Forward")
	}
	run := newTestRunner(r, &store.Memory{}, 1)
	run.Cfg.TeamDelay = 5 * time.Second
	var slept []time.Duration
	run.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := run.Run(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, slept)
}

func TestRun_Canceled(t *testing.T) {
	ts := teams("A", "B", "C")
	r := &fakeRenderer{pages: map[string]string{}}
	for _, tm := range ts {
		r.pages[tm.URL] = page("1 X Y 20, Forward")
	}
	mem := &store.Memory{}
	ctx, cancel := context.WithCancel(context.Background())
	run := newTestRunner(r, mem, 1)
	run.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	res, err := run.Run(ctx, ts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Succeeded, 1)
	assert.Len(t, r.calls, 1)
	_, ok := mem.Get("all_stats")
	assert.False(t, ok)
}

func TestRun_ConcurrentKeepsOrder(t *testing.T) {
	ts := teams("A", "B", "C", "D", "E")
	r := &fakeRenderer{pages: map[string]string{}}
	for i, tm := range ts {
		r.pages[tm.URL] = page(fmt.Sprintf("%d %s Player 20, Forward", i, tm.Name))
	}
	r.errs = map[string]error{ts[2].URL: errors.Mark(errors.New("boom"), whoscored.ErrDriver)}
	mem := &store.Memory{}

	res, err := newTestRunner(r, mem, 3).Run(context.Background(), ts)
	require.NoError(t, err)
	assert.Len(t, r.calls, 5)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "C", res.Failed[0].Team.Name)
	assert.Equal(t,
		[]string{"A/A Player", "B/B Player", "D/D Player", "E/E Player"},
		names(res.Combined))
}
