// Package song 歌曲目录领域 - 检索、管理与播放/点赞计数
package song

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"music-catalog/internal/shared/model"
	"music-catalog/internal/shared/storage"
)

// 业务错误（处理器据此映射 HTTP 状态码）
var (
	ErrSongNotFound = errors.New("song not found")
	ErrInvalidInput = errors.New("invalid input")
)

// 列表接口的条数上限与默认值
const (
	defaultLimit = 50
	maxLimit     = 100
)

// Service 歌曲目录服务
type Service struct {
	store storage.SongStore
}

// NewService 创建歌曲服务
func NewService(store storage.SongStore) *Service {
	return &Service{store: store}
}

// clampLimit 归一化条数参数：非正取默认值，超限封顶
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Get 按 ID 读取歌曲
func (s *Service) Get(ctx context.Context, songID int64) (*model.Song, error) {
	song, err := s.store.GetSong(ctx, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	return song, nil
}

// List 分页列出歌曲
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.Song, error) {
	if offset < 0 {
		offset = 0
	}
	songs, err := s.store.ListSongs(ctx, clampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

// ByArtist 列出指定艺人的歌曲（按发行日期降序）
func (s *Service) ByArtist(ctx context.Context, artistID int64) ([]*model.Song, error) {
	songs, err := s.store.ListSongsByArtist(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs by artist: %w", err)
	}
	return songs, nil
}

// ByAlbum 列出指定专辑的曲目（按曲序）
func (s *Service) ByAlbum(ctx context.Context, albumID int64) ([]*model.Song, error) {
	songs, err := s.store.ListSongsByAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs by album: %w", err)
	}
	return songs, nil
}

// Search 按标题子串检索，结果按播放量降序
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*model.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", ErrInvalidInput)
	}
	songs, err := s.store.SearchSongsByTitle(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	return songs, nil
}

// Top 按播放量降序返回热门歌曲
func (s *Service) Top(ctx context.Context, limit int) ([]*model.Song, error) {
	songs, err := s.store.ListTopSongs(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list top songs: %w", err)
	}
	return songs, nil
}

// Recent 按发行日期降序返回新发布歌曲
func (s *Service) Recent(ctx context.Context, limit int) ([]*model.Song, error) {
	songs, err := s.store.ListRecentReleases(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent releases: %w", err)
	}
	return songs, nil
}

// Create 入库新歌曲
//
// 标题、艺人 ID、音频地址必填，时长必须为正。
// 音质缺省 High、碟号缺省 1 由存储层补齐。
func (s *Service) Create(ctx context.Context, song *model.Song) (*model.Song, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}

	id, err := s.store.CreateSong(ctx, song)
	if err != nil {
		return nil, fmt.Errorf("failed to create song: %w", err)
	}

	return s.Get(ctx, id)
}

// Update 更新歌曲元数据（不含计数器）
func (s *Service) Update(ctx context.Context, song *model.Song) (*model.Song, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateSong(ctx, song)
	if err != nil {
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	if !ok {
		return nil, ErrSongNotFound
	}

	return s.Get(ctx, song.SongID)
}

// Delete 删除歌曲
func (s *Service) Delete(ctx context.Context, songID int64) error {
	ok, err := s.store.DeleteSong(ctx, songID)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if !ok {
		return ErrSongNotFound
	}
	return nil
}

// Play 上报一次播放
func (s *Service) Play(ctx context.Context, songID int64) error {
	ok, err := s.store.IncrementPlayCount(ctx, songID)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	if !ok {
		return ErrSongNotFound
	}
	return nil
}

// Like 点赞
func (s *Service) Like(ctx context.Context, songID int64) error {
	ok, err := s.store.IncrementLikeCount(ctx, songID)
	if err != nil {
		return fmt.Errorf("failed to record like: %w", err)
	}
	if !ok {
		return ErrSongNotFound
	}
	return nil
}

// Unlike 取消点赞
//
// 计数已为零时不再递减，但歌曲存在即视为成功。
func (s *Service) Unlike(ctx context.Context, songID int64) error {
	ok, err := s.store.DecrementLikeCount(ctx, songID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	if ok {
		return nil
	}
	// 区分"计数已为零"和"歌曲不存在"
	song, err := s.store.GetSong(ctx, songID)
	if err != nil {
		return fmt.Errorf("failed to get song: %w", err)
	}
	if song == nil {
		return ErrSongNotFound
	}
	return nil
}

// Count 统计歌曲总数
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountSongs(ctx)
}

func validateSong(song *model.Song) error {
	if strings.TrimSpace(song.SongTitle) == "" {
		return fmt.Errorf("%w: song_title is required", ErrInvalidInput)
	}
	if song.ArtistID <= 0 {
		return fmt.Errorf("%w: artist_id is required", ErrInvalidInput)
	}
	if song.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duration_seconds must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(song.AudioFileURL) == "" {
		return fmt.Errorf("%w: audio_file_url is required", ErrInvalidInput)
	}
	if song.AudioQuality != "" && !model.ValidAudioQuality(song.AudioQuality) {
		return fmt.Errorf("%w: unknown audio_quality %q", ErrInvalidInput, song.AudioQuality)
	}
	return nil
}
