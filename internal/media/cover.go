// Package media は作品のカバー画像取得のドメインロジックを提供する。
package media

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxCoverSize はカバー画像の最大サイズ（2MB）。
const maxCoverSize = 2 * 1024 * 1024

// coverTimeout はカバー画像取得のタイムアウト。
const coverTimeout = 10 * time.Second

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// CoverFetcherService はカバー画像取得のインターフェース。
type CoverFetcherService interface {
	// FetchCover は指定URLからカバー画像を取得する。
	// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
	FetchCover(ctx context.Context, coverURL string) (data []byte, mimeType string, err error)
}

// CoverFetcher はカバー画像取得機能の実装。
type CoverFetcher struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewCoverFetcher はデフォルトのタイムアウト・サイズ上限でCoverFetcherを生成する。
func NewCoverFetcher(ssrfGuard SSRFValidator) *CoverFetcher {
	return NewCoverFetcherWithLimits(ssrfGuard, coverTimeout, maxCoverSize)
}

// NewCoverFetcherWithLimits はタイムアウトとサイズ上限を指定してCoverFetcherを生成する。
func NewCoverFetcherWithLimits(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *CoverFetcher {
	if timeout <= 0 {
		timeout = coverTimeout
	}
	if maxSize <= 0 {
		maxSize = maxCoverSize
	}
	return &CoverFetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// FetchCover は指定URLからカバー画像を取得する。
// 取得失敗時はnilデータと空MIMEを返す（作品はカバーなしで保存される）。
func (f *CoverFetcher) FetchCover(ctx context.Context, coverURL string) ([]byte, string, error) {
	if coverURL == "" {
		return nil, "", nil
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(coverURL); err != nil {
			slog.Warn("カバー画像取得: SSRFブロック", "url", coverURL, "error", err)
			return nil, "", nil
		}
	}

	// HTTPクライアント取得
	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		slog.Warn("カバー画像取得: リクエスト作成失敗", "url", coverURL, "error", err)
		return nil, "", nil
	}
	req.Header.Set("User-Agent", "Mediarank/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("カバー画像取得: HTTPリクエスト失敗", "url", coverURL, "error", err)
		return nil, "", nil
	}
	defer resp.Body.Close()

	// 2xx以外は取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("カバー画像取得: HTTPステータス異常", "url", coverURL, "status", resp.StatusCode)
		return nil, "", nil
	}

	// レスポンスボディを読み込み（上限+1バイトで超過を検出）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("カバー画像取得: レスポンス読み取り失敗", "url", coverURL, "error", err)
		return nil, "", nil
	}

	// サイズ超過チェック
	if int64(len(body)) > f.maxSize {
		slog.Warn("カバー画像取得: サイズ超過", "url", coverURL, "size", len(body))
		return nil, "", nil
	}

	// Content-Typeを取得
	contentType := resp.Header.Get("Content-Type")
	mimeType := extractMimeType(contentType)

	// 画像でない場合はnilを返す
	if !isImageMime(mimeType) {
		slog.Warn("カバー画像取得: 画像以外のContent-Type", "url", coverURL, "contentType", contentType)
		return nil, "", nil
	}

	return body, mimeType, nil
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *CoverFetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)
	}
	return &http.Client{Timeout: f.timeout}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	imageTypes := []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/webp",
		"image/bmp",
	}
	for _, t := range imageTypes {
		if mimeType == t {
			return true
		}
	}
	// image/ で始まるものは許可
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ CoverFetcherService = (*CoverFetcher)(nil)
