//go:build !ios && !android && (amd64 || arm64)

package avcodec

// CodecID represents FFmpeg codec identifiers (enum AVCodecID).
type CodecID int32

// Video and image codec IDs
const (
	CodecIDNone     CodecID = 0
	CodecIDMJPEG    CodecID = 7
	CodecIDMPEG4    CodecID = 12
	CodecIDRawVideo CodecID = 13
	CodecIDH264     CodecID = 27
	CodecIDFFV1     CodecID = 33
	CodecIDPNG      CodecID = 61
	CodecIDPPM      CodecID = 62
	CodecIDPGM      CodecID = 64
	CodecIDBMP      CodecID = 78
	CodecIDTIFF     CodecID = 96
	CodecIDGIF      CodecID = 97
	CodecIDVP8      CodecID = 139
	CodecIDVP9      CodecID = 167
	CodecIDWebP     CodecID = 171
	CodecIDHEVC     CodecID = 173
	CodecIDAV1      CodecID = 226
)

// Audio codec IDs
const (
	CodecIDPCMS16LE CodecID = 0x10000
	CodecIDMP3      CodecID = 0x15001
	CodecIDAAC      CodecID = 0x15002
	CodecIDOpus     CodecID = 0x1503c
)

// String returns FFmpeg's name for the codec ID.
func (id CodecID) String() string {
	return CodecName(id)
}

// IsLossless reports whether the codec reproduces pixel data exactly.
func (id CodecID) IsLossless() bool {
	switch id {
	case CodecIDPNG, CodecIDBMP, CodecIDTIFF, CodecIDPPM, CodecIDPGM,
		CodecIDRawVideo, CodecIDFFV1:
		return true
	}
	return false
}
