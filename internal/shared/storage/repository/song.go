// Package repository Song 相关的存储操作
//
// SQL 文本即列契约：查询覆盖 songs 表的全部列，可空列（album_id、
// release_date、lyrics、language、track_number）映射为指针字段。
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"music-catalog/internal/shared/model"
)

const songColumns = `song_id, song_title, album_id, artist_id, duration_seconds,
	audio_file_url, audio_quality, track_number, disc_number, release_date,
	lyrics, language, explicit_content, is_premium_only, play_count, like_count,
	created_at, updated_at`

// CreateSong 创建歌曲，返回生成的主键
//
// audio_quality 缺省落库为 'High'，disc_number 缺省为 1（与既有数据兼容）。
func (s *Store) CreateSong(ctx context.Context, song *model.Song) (int64, error) {
	quality := song.AudioQuality
	if quality == "" {
		quality = model.AudioQualityHigh
	}
	disc := song.DiscNumber
	if disc == 0 {
		disc = 1
	}

	nowExpr := s.now()
	query := s.rebind(`
		INSERT INTO songs (song_title, album_id, artist_id, duration_seconds,
			audio_file_url, audio_quality, track_number, disc_number, release_date,
			lyrics, language, explicit_content, is_premium_only, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, ` + nowExpr + `, ` + nowExpr + `)
		RETURNING song_id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		song.SongTitle, song.AlbumID, song.ArtistID, song.DurationSeconds,
		song.AudioFileURL, quality, song.TrackNumber, disc, song.ReleaseDate,
		song.Lyrics, song.Language, song.ExplicitContent, song.IsPremiumOnly,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create song: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("create song: no generated id")
	}
	return id, nil
}

// GetSong 通过主键查找歌曲
func (s *Store) GetSong(ctx context.Context, id int64) (*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs WHERE song_id = $1`)
	song := &model.Song{}
	err := scanSong(s.db.QueryRowContext(ctx, query, id), song)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// ListSongs 分页列出歌曲，按主键升序（分页的确定性排序）
func (s *Store) ListSongs(ctx context.Context, limit, offset int) ([]*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs ORDER BY song_id LIMIT $1 OFFSET $2`)
	return s.querySongs(ctx, query, limit, offset)
}

// ListSongsByArtist 列出艺人的歌曲，按发行日期降序
func (s *Store) ListSongsByArtist(ctx context.Context, artistID int64) ([]*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs
		WHERE artist_id = $1 ORDER BY release_date DESC`)
	return s.querySongs(ctx, query, artistID)
}

// ListSongsByAlbum 列出专辑的歌曲，按音轨号排序
func (s *Store) ListSongsByAlbum(ctx context.Context, albumID int64) ([]*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs
		WHERE album_id = $1 ORDER BY track_number`)
	return s.querySongs(ctx, query, albumID)
}

// SearchSongsByTitle 标题子串搜索，按播放量降序
//
// 模式包装（%query%）作为绑定参数传入，不拼接进 SQL。
func (s *Store) SearchSongsByTitle(ctx context.Context, query string, limit int) ([]*model.Song, error) {
	q := s.rebind(`SELECT ` + songColumns + ` FROM songs
		WHERE song_title LIKE $1 ORDER BY play_count DESC LIMIT $2`)
	return s.querySongs(ctx, q, "%"+query+"%", limit)
}

// ListTopSongs 按播放量降序列出热门歌曲
func (s *Store) ListTopSongs(ctx context.Context, limit int) ([]*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs ORDER BY play_count DESC LIMIT $1`)
	return s.querySongs(ctx, query, limit)
}

// ListRecentReleases 按发行日期降序列出新发行
func (s *Store) ListRecentReleases(ctx context.Context, limit int) ([]*model.Song, error) {
	query := s.rebind(`SELECT ` + songColumns + ` FROM songs ORDER BY release_date DESC LIMIT $1`)
	return s.querySongs(ctx, query, limit)
}

// UpdateSong 更新歌曲元数据（计数列不在此处更新），返回是否命中
func (s *Store) UpdateSong(ctx context.Context, song *model.Song) (bool, error) {
	query := s.rebind(`
		UPDATE songs SET song_title = $1, album_id = $2, duration_seconds = $3,
			audio_file_url = $4, audio_quality = $5, track_number = $6, disc_number = $7,
			release_date = $8, lyrics = $9, language = $10, explicit_content = $11,
			is_premium_only = $12, updated_at = ` + s.now() + `
		WHERE song_id = $13`)

	res, err := s.db.ExecContext(ctx, query,
		song.SongTitle, song.AlbumID, song.DurationSeconds,
		song.AudioFileURL, song.AudioQuality, song.TrackNumber, song.DiscNumber,
		song.ReleaseDate, song.Lyrics, song.Language, song.ExplicitContent,
		song.IsPremiumOnly, song.SongID)
	if err != nil {
		return false, fmt.Errorf("update song: %w", err)
	}
	return rowsAffected(res), nil
}

// IncrementPlayCount 播放计数 +1
func (s *Store) IncrementPlayCount(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(`UPDATE songs SET play_count = play_count + 1 WHERE song_id = $1`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("increment play count: %w", err)
	}
	return rowsAffected(res), nil
}

// IncrementLikeCount 点赞计数 +1
func (s *Store) IncrementLikeCount(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(`UPDATE songs SET like_count = like_count + 1 WHERE song_id = $1`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("increment like count: %w", err)
	}
	return rowsAffected(res), nil
}

// DecrementLikeCount 点赞计数 -1，下限为 0
//
// 下限语义由 WHERE like_count > 0 保证：计数为 0 时零行命中，
// 是无操作而不是错误。
func (s *Store) DecrementLikeCount(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(`UPDATE songs SET like_count = like_count - 1 WHERE song_id = $1 AND like_count > 0`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("decrement like count: %w", err)
	}
	return rowsAffected(res), nil
}

// DeleteSong 删除歌曲
func (s *Store) DeleteSong(ctx context.Context, id int64) (bool, error) {
	query := s.rebind(`DELETE FROM songs WHERE song_id = $1`)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete song: %w", err)
	}
	return rowsAffected(res), nil
}

// CountSongs 歌曲总数
func (s *Store) CountSongs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

func (s *Store) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []*model.Song
	for rows.Next() {
		song := &model.Song{}
		if err := scanSong(rows, song); err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// rowScanner 统一 *sql.Row 和 *sql.Rows 的扫描入口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(r rowScanner, song *model.Song) error {
	return r.Scan(
		&song.SongID, &song.SongTitle, &song.AlbumID, &song.ArtistID, &song.DurationSeconds,
		&song.AudioFileURL, &song.AudioQuality, &song.TrackNumber, &song.DiscNumber,
		&song.ReleaseDate, &song.Lyrics, &song.Language, &song.ExplicitContent,
		&song.IsPremiumOnly, &song.PlayCount, &song.LikeCount,
		&song.CreatedAt, &song.UpdatedAt)
}
