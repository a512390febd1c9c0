package work

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mediarank/internal/model"
)

// mockWorkRepo はWorkRepositoryのモック実装。
type mockWorkRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Work, error)
	listFn          func(ctx context.Context) ([]model.WorkWithVotes, error)
	findSpotlightFn func(ctx context.Context) (*model.WorkWithVotes, error)
	listTopFn       func(ctx context.Context, category model.Category, limit int) ([]model.WorkWithVotes, error)
	createFn        func(ctx context.Context, work *model.Work) error
	updateFn        func(ctx context.Context, work *model.Work) error
	deleteFn        func(ctx context.Context, id string) error
}

func (m *mockWorkRepo) FindByID(ctx context.Context, id string) (*model.Work, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockWorkRepo) List(ctx context.Context) ([]model.WorkWithVotes, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockWorkRepo) FindSpotlight(ctx context.Context) (*model.WorkWithVotes, error) {
	if m.findSpotlightFn != nil {
		return m.findSpotlightFn(ctx)
	}
	return nil, nil
}

func (m *mockWorkRepo) ListTopByCategory(ctx context.Context, category model.Category, limit int) ([]model.WorkWithVotes, error) {
	if m.listTopFn != nil {
		return m.listTopFn(ctx, category, limit)
	}
	return nil, nil
}

func (m *mockWorkRepo) Create(ctx context.Context, work *model.Work) error {
	if m.createFn != nil {
		return m.createFn(ctx, work)
	}
	return nil
}

func (m *mockWorkRepo) Update(ctx context.Context, work *model.Work) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, work)
	}
	return nil
}

func (m *mockWorkRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockVoteCounter はVoteCounterのモック実装。
type mockVoteCounter struct {
	countFn func(ctx context.Context, workID string) (int, error)
}

func (m *mockVoteCounter) CountByWorkID(ctx context.Context, workID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, workID)
	}
	return 0, nil
}

// mockSanitizer はSanitizerのモック実装。
type mockSanitizer struct {
	sanitizeFn func(rawHTML string) string
}

func (m *mockSanitizer) Sanitize(rawHTML string) string {
	if m.sanitizeFn != nil {
		return m.sanitizeFn(rawHTML)
	}
	return rawHTML
}

// mockCoverFetcher はCoverFetcherServiceのモック実装。
type mockCoverFetcher struct {
	fetchFn func(ctx context.Context, coverURL string) ([]byte, string, error)
}

func (m *mockCoverFetcher) FetchCover(ctx context.Context, coverURL string) ([]byte, string, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, coverURL)
	}
	return nil, "", nil
}

// mockCreatedRecorder はCreatedRecorderのモック実装。
type mockCreatedRecorder struct {
	recorded []string
}

func (m *mockCreatedRecorder) RecordWorkCreated(category string) {
	m.recorded = append(m.recorded, category)
}

func newTestService(workRepo *mockWorkRepo) *Service {
	return NewService(workRepo, &mockVoteCounter{}, &mockSanitizer{}, &mockCoverFetcher{}, &mockCreatedRecorder{}, 10)
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %s, want %s", apiErr.Code, wantCode)
	}
}

func TestService_Create_Success(t *testing.T) {
	var saved *model.Work
	workRepo := &mockWorkRepo{
		createFn: func(ctx context.Context, work *model.Work) error {
			saved = work
			return nil
		},
	}
	recorder := &mockCreatedRecorder{}
	service := NewService(workRepo, &mockVoteCounter{}, &mockSanitizer{}, &mockCoverFetcher{}, recorder, 10)

	work, err := service.Create(context.Background(), "user-1", WorkInput{
		Title:           "Dirty Computer",
		Category:        "album",
		Creator:         "Janelle Monáe",
		PublicationYear: 2018,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if work.ID == "" {
		t.Error("expected generated work ID")
	}
	if work.Title != "Dirty Computer" {
		t.Errorf("title = %q, want %q", work.Title, "Dirty Computer")
	}
	if work.Category != model.CategoryAlbum {
		t.Errorf("category = %q, want %q", work.Category, model.CategoryAlbum)
	}
	if saved == nil {
		t.Fatal("expected work to be persisted")
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != "album" {
		t.Errorf("recorded metrics = %v, want [album]", recorder.recorded)
	}
}

func TestService_Create_Guest_ReturnsUnauthorized(t *testing.T) {
	created := false
	workRepo := &mockWorkRepo{
		createFn: func(ctx context.Context, work *model.Work) error {
			created = true
			return nil
		},
	}
	service := newTestService(workRepo)

	// 未ログインの場合、入力が不正でも認証エラーが優先される
	_, err := service.Create(context.Background(), "", WorkInput{
		Title:    "",
		Category: "nope",
	})

	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
	if created {
		t.Error("work should not be created for guest")
	}
}

func TestService_Create_BlankTitle_ReturnsValidationFailed(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	titles := []string{"", "   ", "\t\n"}
	for _, title := range titles {
		_, err := service.Create(context.Background(), "user-1", WorkInput{
			Title:    title,
			Category: "book",
		})
		assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
	}
}

func TestService_Create_InvalidCategory_ReturnsValidationFailed(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	// カテゴリは完全一致のみ許可。前後の空白も大文字小文字の違いも不正
	categories := []string{"", "  ", "nope", "42", "albumstrailingtext", "Album", "ALBUM", " album", "album "}
	for _, category := range categories {
		t.Run("category="+category, func(t *testing.T) {
			_, err := service.Create(context.Background(), "user-1", WorkInput{
				Title:    "Valid Title",
				Category: category,
			})
			assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
		})
	}
}

func TestService_Create_ValidCategories(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	for _, category := range []string{"album", "book", "movie"} {
		t.Run("category="+category, func(t *testing.T) {
			_, err := service.Create(context.Background(), "user-1", WorkInput{
				Title:    "Valid Title",
				Category: category,
			})
			if err != nil {
				t.Errorf("Create() with category %q error = %v", category, err)
			}
		})
	}
}

func TestService_Create_SanitizesDescription(t *testing.T) {
	sanitizer := &mockSanitizer{
		sanitizeFn: func(rawHTML string) string {
			return "sanitized"
		},
	}
	var saved *model.Work
	workRepo := &mockWorkRepo{
		createFn: func(ctx context.Context, work *model.Work) error {
			saved = work
			return nil
		},
	}
	service := NewService(workRepo, &mockVoteCounter{}, sanitizer, &mockCoverFetcher{}, &mockCreatedRecorder{}, 10)

	_, err := service.Create(context.Background(), "user-1", WorkInput{
		Title:       "Title",
		Category:    "movie",
		Description: "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved.Description != "sanitized" {
		t.Errorf("description = %q, want %q", saved.Description, "sanitized")
	}
}

func TestService_Create_CoverFetchSuccess_SetsCover(t *testing.T) {
	coverFetcher := &mockCoverFetcher{
		fetchFn: func(ctx context.Context, coverURL string) ([]byte, string, error) {
			return []byte{0x89, 0x50}, "image/png", nil
		},
	}
	var saved *model.Work
	workRepo := &mockWorkRepo{
		createFn: func(ctx context.Context, work *model.Work) error {
			saved = work
			return nil
		},
	}
	service := NewService(workRepo, &mockVoteCounter{}, &mockSanitizer{}, coverFetcher, &mockCreatedRecorder{}, 10)

	_, err := service.Create(context.Background(), "user-1", WorkInput{
		Title:    "Title",
		Category: "album",
		CoverURL: "https://example.com/cover.png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if saved.CoverMime != "image/png" {
		t.Errorf("coverMime = %q, want %q", saved.CoverMime, "image/png")
	}
	if len(saved.CoverData) == 0 {
		t.Error("expected cover data to be set")
	}
}

func TestService_Create_CoverFetchFailure_IsNonFatal(t *testing.T) {
	coverFetcher := &mockCoverFetcher{
		fetchFn: func(ctx context.Context, coverURL string) ([]byte, string, error) {
			return nil, "", errors.New("fetch failed")
		},
	}
	service := NewService(&mockWorkRepo{}, &mockVoteCounter{}, &mockSanitizer{}, coverFetcher, &mockCreatedRecorder{}, 10)

	work, err := service.Create(context.Background(), "user-1", WorkInput{
		Title:    "Title",
		Category: "album",
		CoverURL: "https://example.com/cover.png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if work.CoverData != nil {
		t.Error("expected no cover data after fetch failure")
	}
}

func TestService_Get_Success(t *testing.T) {
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{ID: id, Title: "Title", Category: model.CategoryBook}, nil
		},
	}
	voteCounter := &mockVoteCounter{
		countFn: func(ctx context.Context, workID string) (int, error) {
			return 7, nil
		},
	}
	service := NewService(workRepo, voteCounter, &mockSanitizer{}, &mockCoverFetcher{}, &mockCreatedRecorder{}, 10)

	work, err := service.Get(context.Background(), "work-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if work.VoteCount != 7 {
		t.Errorf("voteCount = %d, want 7", work.VoteCount)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	_, err := service.Get(context.Background(), "nonexistent-id")
	assertAPIErrorCode(t, err, model.ErrCodeWorkNotFound)
}

func TestService_Update_NotFound_TakesPriorityOverAuth(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	// 存在しない作品は未ログインでもWorkNotFound（認証エラーではない）
	_, err := service.Update(context.Background(), "", "nonexistent-id", WorkInput{
		Title:    "Title",
		Category: "album",
	})
	assertAPIErrorCode(t, err, model.ErrCodeWorkNotFound)
}

func TestService_Update_Guest_ReturnsUnauthorized(t *testing.T) {
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{ID: id, Title: "Old", Category: model.CategoryAlbum}, nil
		},
	}
	service := newTestService(workRepo)

	_, err := service.Update(context.Background(), "", "work-1", WorkInput{
		Title:    "New",
		Category: "album",
	})
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestService_Update_InvalidInput_ReturnsValidationFailed(t *testing.T) {
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{ID: id, Title: "Old", Category: model.CategoryAlbum}, nil
		},
	}
	service := newTestService(workRepo)

	// 存在する作品への不正入力は、ログイン済みならValidationFailed
	_, err := service.Update(context.Background(), "user-1", "work-1", WorkInput{
		Title:    "New",
		Category: "nope",
	})
	assertAPIErrorCode(t, err, model.ErrCodeValidationFailed)
}

func TestService_Update_Success(t *testing.T) {
	var updated *model.Work
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{
				ID:        id,
				Title:     "Old Title",
				Category:  model.CategoryAlbum,
				CreatedAt: time.Now().Add(-time.Hour),
			}, nil
		},
		updateFn: func(ctx context.Context, work *model.Work) error {
			updated = work
			return nil
		},
	}
	service := newTestService(workRepo)

	work, err := service.Update(context.Background(), "user-1", "work-1", WorkInput{
		Title:    "New Title",
		Category: "movie",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if work.Title != "New Title" {
		t.Errorf("title = %q, want %q", work.Title, "New Title")
	}
	if work.Category != model.CategoryMovie {
		t.Errorf("category = %q, want %q", work.Category, model.CategoryMovie)
	}
	if updated == nil {
		t.Fatal("expected work to be persisted")
	}
}

func TestService_Delete_NotFound_TakesPriorityOverAuth(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	err := service.Delete(context.Background(), "", "nonexistent-id")
	assertAPIErrorCode(t, err, model.ErrCodeWorkNotFound)
}

func TestService_Delete_Guest_ReturnsUnauthorized(t *testing.T) {
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{ID: id}, nil
		},
	}
	service := newTestService(workRepo)

	err := service.Delete(context.Background(), "", "work-1")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestService_Delete_Success(t *testing.T) {
	deletedID := ""
	workRepo := &mockWorkRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Work, error) {
			return &model.Work{ID: id}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	service := newTestService(workRepo)

	if err := service.Delete(context.Background(), "user-1", "work-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deletedID != "work-1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "work-1")
	}
}

func TestService_GetRankings_Success(t *testing.T) {
	spotlight := &model.WorkWithVotes{
		Work:      model.Work{ID: "work-top", Title: "Dirty Computer", Category: model.CategoryAlbum},
		VoteCount: 42,
	}
	requestedLimits := map[model.Category]int{}
	workRepo := &mockWorkRepo{
		findSpotlightFn: func(ctx context.Context) (*model.WorkWithVotes, error) {
			return spotlight, nil
		},
		listTopFn: func(ctx context.Context, category model.Category, limit int) ([]model.WorkWithVotes, error) {
			requestedLimits[category] = limit
			return []model.WorkWithVotes{
				{Work: model.Work{ID: "work-" + string(category), Category: category}},
			}, nil
		},
	}
	service := newTestService(workRepo)

	rankings, err := service.GetRankings(context.Background())
	if err != nil {
		t.Fatalf("GetRankings() error = %v", err)
	}

	if rankings.Spotlight == nil || rankings.Spotlight.ID != "work-top" {
		t.Error("expected spotlight work")
	}
	if len(rankings.Albums) != 1 || len(rankings.Books) != 1 || len(rankings.Movies) != 1 {
		t.Error("expected one work per category ranking")
	}
	for _, category := range model.Categories {
		if requestedLimits[category] != 10 {
			t.Errorf("limit for %s = %d, want 10", category, requestedLimits[category])
		}
	}
}

func TestService_GetRankings_EmptyCatalog(t *testing.T) {
	service := newTestService(&mockWorkRepo{})

	rankings, err := service.GetRankings(context.Background())
	if err != nil {
		t.Fatalf("GetRankings() error = %v", err)
	}
	if rankings.Spotlight != nil {
		t.Error("expected nil spotlight for empty catalog")
	}
}
