package model

import "time"

// AudioQuality 音频质量
type AudioQuality string

const (
	AudioQualityLow      AudioQuality = "Low"
	AudioQualityMedium   AudioQuality = "Medium"
	AudioQualityHigh     AudioQuality = "High" // 创建时的默认值
	AudioQualityLossless AudioQuality = "Lossless"
)

// ValidAudioQuality 判断音频质量档位是否合法
func ValidAudioQuality(q AudioQuality) bool {
	switch q {
	case AudioQualityLow, AudioQualityMedium, AudioQualityHigh, AudioQualityLossless:
		return true
	}
	return false
}

// Song 歌曲元数据
//
// play_count 只增不减；like_count 允许递减但永不为负（由 SQL 层保证下限）。
type Song struct {
	SongID          int64        `json:"song_id" db:"song_id"`
	SongTitle       string       `json:"song_title" db:"song_title"`
	AlbumID         *int64       `json:"album_id,omitempty" db:"album_id"`
	ArtistID        int64        `json:"artist_id" db:"artist_id"`
	DurationSeconds int          `json:"duration_seconds" db:"duration_seconds"`
	AudioFileURL    string       `json:"audio_file_url" db:"audio_file_url"`
	AudioQuality    AudioQuality `json:"audio_quality" db:"audio_quality"`
	TrackNumber     *int         `json:"track_number,omitempty" db:"track_number"`
	DiscNumber      int          `json:"disc_number" db:"disc_number"`
	ReleaseDate     *time.Time   `json:"release_date,omitempty" db:"release_date"`
	Lyrics          *string      `json:"lyrics,omitempty" db:"lyrics"`
	Language        *string      `json:"language,omitempty" db:"language"`
	ExplicitContent bool         `json:"explicit_content" db:"explicit_content"`
	IsPremiumOnly   bool         `json:"is_premium_only" db:"is_premium_only"`
	PlayCount       int64        `json:"play_count" db:"play_count"`
	LikeCount       int64        `json:"like_count" db:"like_count"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}
