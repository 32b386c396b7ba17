package tiktok

// TikTok DOM selectors. These break when TikTok changes its markup; every
// cascade can be overridden from the config file without a rebuild.

// Metric names one engagement counter.
type Metric string

const (
	MetricViews     Metric = "views"
	MetricLikes     Metric = "likes"
	MetricBookmarks Metric = "bookmarks"
	MetricComments  Metric = "comments"
)

// Metrics lists the counters in output column order.
var Metrics = []Metric{MetricViews, MetricLikes, MetricBookmarks, MetricComments}

// Selectors groups every locator cascade the scraper uses.
type Selectors struct {
	// FeedItems finds the video tiles on a profile.
	FeedItems Cascade
	// FeedViews reads the view counter printed on a tile.
	FeedViews Cascade
	// Primary holds the exact per-metric locators on the detail view.
	Primary map[Metric]Cascade
	// Fallback holds looser substring locators tried when Primary comes up empty.
	Fallback map[Metric]Cascade
}

// DefaultSelectors returns the selectors known to match TikTok's web app.
func DefaultSelectors() Selectors {
	return Selectors{
		FeedItems: Cascade{
			{Name: "video-link", Selector: `a[href*="/video/"]`},
			{Name: "video-container-class", Selector: `a.css-1mdo0pl-AVideoContainer`},
			{Name: "user-post-item", Selector: `[data-e2e="user-post-item"]`},
		},
		FeedViews: Cascade{
			{Name: "video-views", Selector: `strong[data-e2e="video-views"]`},
			{Name: "video-count-class", Selector: `strong.video-count`},
		},
		Primary: map[Metric]Cascade{
			MetricViews:     {{Name: "video-views", Selector: `strong[data-e2e="video-views"]`}},
			MetricLikes:     {{Name: "browse-like-count", Selector: `strong[data-e2e="browse-like-count"]`}},
			// TikTok tags the bookmark counter "undefined-count".
			MetricBookmarks: {{Name: "undefined-count", Selector: `strong[data-e2e="undefined-count"]`}},
			MetricComments:  {{Name: "browse-comment-count", Selector: `strong[data-e2e="browse-comment-count"]`}},
		},
		Fallback: map[Metric]Cascade{
			MetricViews: {{Name: "views-substring", Selector: `strong[data-e2e*="views"]`}},
			MetricLikes: {{Name: "like-substring", Selector: `strong[data-e2e*="like"]`}},
			MetricBookmarks: {
				{Name: "bookmark-substring", Selector: `strong[data-e2e*="bookmark"]`},
				{Name: "collect-substring", Selector: `strong[data-e2e*="collect"]`},
				{Name: "save-substring", Selector: `strong[data-e2e*="save"]`},
			},
			MetricComments: {{Name: "comment-substring", Selector: `strong[data-e2e*="comment"]`}},
		},
	}
}
