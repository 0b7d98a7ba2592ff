package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
	"content_aggregator/internal/filter"
	"content_aggregator/internal/service/mocks"
)

type IngestServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source    *mocks.MockSource
	fetcher   *mocks.MockFetcher
	content   *mocks.MockContentStore
	logs      *mocks.MockIngestLogStore
	publisher *mocks.MockPublisher

	service *IngestService
	logger  *slog.Logger
}

func (s *IngestServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.content = mocks.NewMockContentStore(s.ctrl)
	s.logs = mocks.NewMockIngestLogStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	contentFilter := filter.New(config.FilterConfig{
		MinTitleLength:  5,
		MaxTitleLength:  200,
		Keywords:        []string{"AI", "人工智能"},
		ExcludeKeywords: []string{"广告"},
	})

	s.service = NewIngestService(
		Sources{domain.PlatformVideoSite: s.source},
		s.fetcher,
		contentFilter,
		s.content,
		s.logs,
		s.publisher,
		s.logger,
	)
}

func (s *IngestServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestIngestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngestServiceTestSuite))
}

func (s *IngestServiceTestSuite) creator() domain.Creator {
	return domain.Creator{
		ID:                 7,
		DisplayName:        "tech_channel",
		Platform:           domain.PlatformVideoSite,
		PlatformExternalID: "12345",
		IsActive:           true,
	}
}

func (s *IngestServiceTestSuite) expectFetch(items []domain.CandidateItem, err error) {
	s.fetcher.EXPECT().Do(gomock.Any(), gomock.Any()).Return(items, err)
}

func (s *IngestServiceTestSuite) TestIngestCreator_SavesNewItems() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/2", Title: "人工智能前沿速览"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(1), true, nil)
	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(2), true, nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(2)

	s.logs.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry *domain.IngestLogEntry) error {
			s.Equal(domain.StatusSuccess, entry.Status)
			s.Equal(2, entry.ItemsSaved)
			s.Require().NotNil(entry.CreatorID)
			s.Equal(int64(7), *entry.CreatorID)
			return nil
		},
	)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.Equal(2, result.ItemsFound)
	s.Equal(2, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestCreator_DuplicateNotCounted() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/dup", Title: "人工智能前沿速览"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(1), true, nil)
	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(0), false, nil)
	// The duplicate is neither counted nor republished.
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(2, result.ItemsFound)
	s.Equal(1, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestCreator_FilterDropsItems() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/2", Title: "今天吃什么好呢"},
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/3", Title: "人工智能课程广告"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(1), true, nil).Times(1)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(3, result.ItemsFound)
	s.Equal(1, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestCreator_FetchErrorWritesErrorRow() {
	ctx := context.Background()

	s.expectFetch(nil, errors.New("video_site: not_found: status 404"))

	s.logs.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry *domain.IngestLogEntry) error {
			s.Equal(domain.StatusError, entry.Status)
			s.Equal(0, entry.ItemsSaved)
			s.Contains(entry.Message, "not_found")
			return nil
		},
	)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(domain.StatusError, result.Status)
}

func (s *IngestServiceTestSuite) TestIngestCreator_UnsupportedPlatform() {
	ctx := context.Background()

	creator := s.creator()
	creator.Platform = domain.PlatformMicroblog

	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := s.service.IngestCreator(ctx, creator, 10)

	s.NoError(err)
	s.Equal(domain.StatusError, result.Status)
	s.Contains(result.Message, "unsupported platform")
}

func (s *IngestServiceTestSuite) TestIngestCreator_LogAppendFailureAborts() {
	ctx := context.Background()

	s.expectFetch([]domain.CandidateItem{}, nil)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(errors.New("db down"))

	_, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.Error(err)
	s.Contains(err.Error(), "append ingest log")
}

func (s *IngestServiceTestSuite) TestIngestCreator_InsertErrorContinues() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/2", Title: "人工智能前沿速览"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(0), false, errors.New("constraint violation"))
	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(2), true, nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(1, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestCreator_PublisherFailureIsNotFatal() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(1), true, nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("broker down"))
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := s.service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(1, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestCreator_PublisherNil() {
	ctx := context.Background()

	service := NewIngestService(
		Sources{domain.PlatformVideoSite: s.source},
		s.fetcher,
		filter.New(config.FilterConfig{MinTitleLength: 5, MaxTitleLength: 200, Keywords: []string{"AI"}}),
		s.content,
		s.logs,
		nil,
		s.logger,
	)

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
	}
	s.expectFetch(items, nil)
	s.content.EXPECT().Insert(ctx, gomock.Any()).Return(int64(1), true, nil)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := service.IngestCreator(ctx, s.creator(), 10)

	s.NoError(err)
	s.Equal(1, result.ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestSearch_OneRowPerPlatform() {
	ctx := context.Background()

	items := []domain.CandidateItem{
		{Platform: domain.PlatformVideoSite, SourceURL: "https://v.example/1", Title: "AI 实战教程"},
	}
	s.expectFetch(items, nil)

	s.content.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, content *domain.Content) (int64, bool, error) {
			s.Nil(content.CreatorID)
			return int64(1), true, nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	s.logs.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry *domain.IngestLogEntry) error {
			s.Nil(entry.CreatorID)
			s.Equal(domain.StatusSuccess, entry.Status)
			return nil
		},
	)

	results, err := s.service.IngestSearch(ctx, "AI", []domain.Platform{domain.PlatformVideoSite}, 5)

	s.NoError(err)
	s.Require().Len(results, 1)
	s.Equal("AI", results[0].Target)
	s.Equal(1, results[0].ItemsSaved)
}

func (s *IngestServiceTestSuite) TestIngestSearch_DefaultsToAllPlatforms() {
	ctx := context.Background()

	// Only video_site is wired in this suite, so the three other platforms
	// come back as error rows while the sweep itself keeps going.
	s.expectFetch([]domain.CandidateItem{}, nil)
	s.logs.EXPECT().Append(ctx, gomock.Any()).Return(nil).Times(len(domain.Platforms()))

	results, err := s.service.IngestSearch(ctx, "AI", nil, 5)

	s.NoError(err)
	s.Len(results, len(domain.Platforms()))

	success, failed := 0, 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			success++
		} else {
			failed++
		}
	}
	s.Equal(1, success)
	s.Equal(3, failed)
}
