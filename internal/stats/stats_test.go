package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"ratebot/internal/cache"
	"ratebot/internal/queue"
	"ratebot/internal/store"
)

var testNames = map[string]string{"cohere": "Cohere"}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReportEmptyStore(t *testing.T) {
	st := &store.MockStore{}
	c := &cache.MockCache{}

	c.On("GetStats", mock.Anything).Return(nil, nil).Once()
	st.On("Count", mock.Anything, store.Filter{}).Return(int64(0), nil).Once()
	st.On("Average", mock.Anything, store.Filter{}).Return(0.0, nil).Once()
	st.On("List", mock.Anything).Return([]store.Rating{}, nil).Once()
	c.On("SetStats", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	st.On("Count", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil && *f.UserID == 42
	})).Return(int64(0), nil).Once()
	st.On("Average", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil
	})).Return(0.0, nil).Once()

	b := NewBuilder(testLog(), st, c, nil, testNames, time.Minute)

	report, err := b.Report(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.HasData() {
		t.Error("expected no data")
	}
	if len(report.Artifacts) != 0 {
		t.Errorf("expected no artifacts, got %d", len(report.Artifacts))
	}
	want := "Total ratings: 0\nAverage rating: 0.00\n\nYour ratings: 0\nYour average rating: 0.00"
	if report.Text() != want {
		t.Errorf("unexpected text:\n%s", report.Text())
	}
	st.AssertExpectations(t)
}

func TestReportComputesAndCaches(t *testing.T) {
	st := &store.MockStore{}
	c := &cache.MockCache{}

	records := []store.Rating{
		{ID: 1, UserID: 42, Question: "What is 2+2?", Answer: "4", Rating: 2, Model: "cohere"},
	}

	c.On("GetStats", mock.Anything).Return(nil, nil).Once()
	st.On("Count", mock.Anything, store.Filter{}).Return(int64(1), nil).Once()
	st.On("Average", mock.Anything, store.Filter{}).Return(2.0, nil).Once()
	st.On("List", mock.Anything).Return(records, nil).Once()
	c.On("SetStats", mock.Anything, mock.MatchedBy(func(s *cache.GlobalStats) bool {
		return s.TotalCount == 1 && s.TotalAvg == 2.0 && len(s.Artifacts) == 4
	}), time.Minute).Return(nil).Once()
	st.On("Count", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil && *f.UserID == 42
	})).Return(int64(1), nil).Once()
	st.On("Average", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil
	})).Return(2.0, nil).Once()

	b := NewBuilder(testLog(), st, c, nil, testNames, time.Minute)

	report, err := b.Report(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Distribution + averages + top/bottom table pair for one model.
	if len(report.Artifacts) != 4 {
		t.Errorf("expected 4 artifacts, got %d", len(report.Artifacts))
	}
	want := "Total ratings: 1\nAverage rating: 2.00\n\nYour ratings: 1\nYour average rating: 2.00"
	if report.Text() != want {
		t.Errorf("unexpected text:\n%s", report.Text())
	}
	c.AssertExpectations(t)
}

func TestReportUsesCachedGlobalPart(t *testing.T) {
	st := &store.MockStore{}
	c := &cache.MockCache{}

	c.On("GetStats", mock.Anything).
		Return(&cache.GlobalStats{TotalCount: 9, TotalAvg: 1.5}, nil).Once()
	st.On("Count", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil
	})).Return(int64(3), nil).Once()
	st.On("Average", mock.Anything, mock.MatchedBy(func(f store.Filter) bool {
		return f.UserID != nil
	})).Return(1.0, nil).Once()

	b := NewBuilder(testLog(), st, c, nil, testNames, time.Minute)

	report, err := b.Report(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCount != 9 || report.UserCount != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
	// No store-wide Count/Average/List should have happened.
	st.AssertNotCalled(t, "List", mock.Anything)
}

func TestRatingRecordedWithoutQueueInvalidatesDirectly(t *testing.T) {
	c := &cache.MockCache{}
	c.On("Invalidate", mock.Anything).Return(nil).Once()

	b := NewBuilder(testLog(), &store.MockStore{}, c, nil, testNames, time.Minute)
	b.RatingRecorded(context.Background(), store.Rating{ID: 1, Model: "cohere"})

	c.AssertExpectations(t)
}

func TestRatingRecordedPublishesEvent(t *testing.T) {
	c := &cache.MockCache{}
	q := &queue.MockQueue{}
	q.On("Publish", mock.Anything, mock.MatchedBy(func(e queue.Event) bool {
		return e.Type == queue.EventRatingRecorded && len(e.Payload) > 0
	})).Return(nil).Once()

	b := NewBuilder(testLog(), &store.MockStore{}, c, q, testNames, time.Minute)
	b.RatingRecorded(context.Background(), store.Rating{ID: 7, UserID: 42, Model: "cohere", Rating: 2})

	q.AssertExpectations(t)
	c.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestRatingRecordedFallsBackOnPublishFailure(t *testing.T) {
	c := &cache.MockCache{}
	q := &queue.MockQueue{}
	q.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats down")).Times(3)
	c.On("Invalidate", mock.Anything).Return(nil).Once()

	b := NewBuilder(testLog(), &store.MockStore{}, c, q, testNames, time.Minute)
	b.retryBase = time.Millisecond
	b.RatingRecorded(context.Background(), store.Rating{ID: 7, Model: "cohere"})

	c.AssertExpectations(t)
}
