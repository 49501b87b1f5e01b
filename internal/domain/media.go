package domain

// MediaKind tells which UDP stream a packet belongs to.
type MediaKind uint8

const (
	MediaVideo MediaKind = 1
	MediaAudio MediaKind = 2
)

func (k MediaKind) String() string {
	switch k {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	}
	return "unknown"
}

func (k MediaKind) Valid() bool { return k == MediaVideo || k == MediaAudio }
