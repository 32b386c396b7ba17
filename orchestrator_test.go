package tiktok

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aliceTarget = ProfileTarget{URL: fakeProfileURL, Name: "alice"}

func testOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{
		Feed:      FeedOptions{NoChangeThreshold: 2, MaxAttempts: 10},
		Selectors: DefaultSelectors(),
		Logger:    zerolog.Nop(),
	}
}

func newTestOrchestrator(b *fakeBrowser, opts OrchestratorOptions) *Orchestrator {
	pacer, _ := instantPacer()
	return newOrchestrator(b.launcher(), opts, pacer)
}

type fakeLookup struct {
	author Author
	err    error
	asked  []string
}

func (l *fakeLookup) LookupProfile(ctx context.Context, username string) (Author, error) {
	l.asked = append(l.asked, username)
	return l.author, l.err
}

// ---------------------------------------------------------------------------
// ScrapeProfile
// ---------------------------------------------------------------------------

func TestScrapeProfile_AllItems(t *testing.T) {
	t.Parallel()

	page := newFakePage(feedItems(3))
	b := &fakeBrowser{page: page}

	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)
	require.NoError(t, err)

	assert.Equal(t, fakeProfileURL, page.visited)
	assert.Equal(t, StateFinalizing, sess.State)
	assert.Equal(t, FeedStable, sess.Feed.State)
	assert.Equal(t, 3, sess.Discovered)
	assert.Equal(t, 3, sess.Planned)
	require.Len(t, sess.Records, 3)
	for i, r := range sess.Records {
		assert.Equal(t, "alice", r.ProfileName)
		assert.Equal(t, fakeProfileURL, r.ProfileURL)
		assert.Equal(t, feedItems(3)[i].url, r.VideoURL)
	}
	assert.Equal(t, 1, b.closes)
}

func TestScrapeProfile_NoItems(t *testing.T) {
	t.Parallel()

	b := &fakeBrowser{page: newFakePage(nil)}
	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)

	require.NoError(t, err)
	assert.Empty(t, sess.Records)
	assert.Zero(t, sess.Planned)
	assert.Equal(t, 1, b.closes)
}

func TestScrapeProfile_SkipsFailedItem(t *testing.T) {
	t.Parallel()

	items := feedItems(5)
	items[2].urlErr = errFakeBrowser
	page := newFakePage(items)
	b := &fakeBrowser{page: page}

	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)
	require.NoError(t, err)

	require.Len(t, sess.Records, 4)
	var got []string
	for _, r := range sess.Records {
		got = append(got, r.VideoURL)
	}
	assert.Equal(t, []string{items[0].url, items[1].url, items[3].url, items[4].url}, got)
	assert.Equal(t, []int{2}, sess.Skipped)
	assert.Equal(t, 1, b.closes)
}

func TestScrapeProfile_KeepsRecordWhenFeedNotRestored(t *testing.T) {
	t.Parallel()

	items := feedItems(2)
	items[0].backErr = errFakeBrowser
	b := &fakeBrowser{page: newFakePage(items)}

	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)
	require.NoError(t, err)
	assert.Len(t, sess.Records, 2)
	assert.Empty(t, sess.Skipped)
}

func TestScrapeProfile_MaxVideos(t *testing.T) {
	t.Parallel()

	page := newFakePage(feedItems(6))
	b := &fakeBrowser{page: page}
	opts := testOrchestratorOptions()
	opts.MaxVideos = 2

	sess, err := newTestOrchestrator(b, opts).ScrapeProfile(context.Background(), aliceTarget)
	require.NoError(t, err)
	assert.Equal(t, 6, sess.Discovered)
	assert.Equal(t, 2, sess.Planned)
	assert.Len(t, sess.Records, 2)
	assert.Equal(t, []int{0, 1}, page.clicks)
}

func TestScrapeProfile_StopsWhenFeedShrinks(t *testing.T) {
	t.Parallel()

	page := newFakePage(feedItems(4))
	page.onClick = func(i int) {
		if i == 1 {
			page.loaded = 2
		}
	}
	b := &fakeBrowser{page: page}

	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)
	require.NoError(t, err)
	assert.Len(t, sess.Records, 2)
	assert.Empty(t, sess.Skipped)
}

func TestScrapeProfile_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	page := newFakePage(feedItems(4))
	page.onClick = func(i int) {
		if i == 1 {
			cancel()
		}
	}
	b := &fakeBrowser{page: page}

	sess, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(ctx, aliceTarget)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sess)
	assert.Len(t, sess.Records, 1)
	assert.Equal(t, 1, b.closes)
}

func TestScrapeProfile_BrowserReleasedOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		browser func() *fakeBrowser
	}{
		{"new page", func() *fakeBrowser { return &fakeBrowser{pageErr: errFakeBrowser} }},
		{"navigate", func() *fakeBrowser {
			p := newFakePage(nil)
			p.navErr = errFakeBrowser
			return &fakeBrowser{page: p}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := tt.browser()
			_, err := newTestOrchestrator(b, testOrchestratorOptions()).ScrapeProfile(context.Background(), aliceTarget)
			assert.ErrorIs(t, err, errFakeBrowser)
			assert.Equal(t, 1, b.closes)
		})
	}
}

func TestScrapeProfile_LaunchFailure(t *testing.T) {
	t.Parallel()

	launch := func(ctx context.Context) (Browser, error) { return nil, errFakeBrowser }
	pacer, _ := instantPacer()
	sess, err := newOrchestrator(launch, testOrchestratorOptions(), pacer).ScrapeProfile(context.Background(), aliceTarget)

	assert.ErrorIs(t, err, errFakeBrowser)
	assert.Equal(t, StateInitializing, sess.State)
}

func TestScrapeProfile_LookupCrossCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lookup   *fakeLookup
		declared int
	}{
		{"declares more", &fakeLookup{author: Author{VideoCount: 10}}, 10},
		{"matches", &fakeLookup{author: Author{VideoCount: 3}}, 3},
		{"lookup fails", &fakeLookup{err: errors.New("blocked")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := &fakeBrowser{page: newFakePage(feedItems(3))}
			opts := testOrchestratorOptions()
			opts.Lookup = tt.lookup

			sess, err := newTestOrchestrator(b, opts).ScrapeProfile(context.Background(), aliceTarget)
			require.NoError(t, err)
			assert.Equal(t, tt.declared, sess.Declared)
			assert.Len(t, sess.Records, 3, "the check never changes what is scraped")
			assert.Equal(t, []string{"alice"}, tt.lookup.asked)
		})
	}
}
