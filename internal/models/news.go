package models

// Sentiment classifies a news item.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// NewsItem is a single market news entry.
type NewsItem struct {
	ID        int64     `json:"id"`
	Time      string    `json:"time"`
	Coin      string    `json:"coin"`
	Sentiment Sentiment `json:"sentiment"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Title     string    `json:"title,omitempty"`
	Read      bool      `json:"read"`
}

// NewsPage is one page of GET /news.
type NewsPage struct {
	Content       []NewsItem `json:"content"`
	TotalElements int        `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
}

// NewsQuery filters GET /news. "all" disables a filter.
type NewsQuery struct {
	Coin      string
	Sentiment string
	Page      int
	Size      int
}

// DefaultNewsPageSize matches the news table page size.
const DefaultNewsPageSize = 8

// WithDefaults fills empty filters with "all" and a non-positive size with the default.
func (q NewsQuery) WithDefaults() NewsQuery {
	if q.Coin == "" {
		q.Coin = "all"
	}
	if q.Sentiment == "" {
		q.Sentiment = "all"
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultNewsPageSize
	}
	return q
}
