package dto

// UploadParams is the strategy-independent contract both publisher
// implementations fulfil. The tag list is already normalized and capped by
// the caller; strategies just pass it through.
type UploadParams struct {
	VideoPath     string   `json:"video_path"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	PrivacyStatus string   `json:"privacy_status"` // private | public | unlisted
	CategoryID    string   `json:"category_id"`
	MadeForKids   bool     `json:"made_for_kids"`
	IsShort       bool     `json:"is_short"`
}
