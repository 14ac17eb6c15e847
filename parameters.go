//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"runtime"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
)

// Parameters is an AVCodecParameters: the codec-independent description of
// a stream. Parameters obtained from a Stream are borrowed; those from
// NewParameters are owned.
type Parameters struct {
	h handle
}

// NewParameters allocates an empty parameters object.
func NewParameters() (*Parameters, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	h, err := newHandle(avcodec.ParametersAlloc(), "codec parameters", avcodec.ParametersFree)
	if err != nil {
		return nil, err
	}
	p := &Parameters{h: h}
	runtime.SetFinalizer(p, (*Parameters).Close)
	return p, nil
}

func (p *Parameters) raw() avcodec.Parameters {
	return p.h.raw()
}

// MediaType returns the stream category.
func (p *Parameters) MediaType() MediaType {
	return avcodec.GetParCodecType(p.raw())
}

// CodecID returns the codec.
func (p *Parameters) CodecID() CodecID {
	return avcodec.GetParCodecID(p.raw())
}

// Width returns the video width.
func (p *Parameters) Width() int {
	return int(avcodec.GetParWidth(p.raw()))
}

// Height returns the video height.
func (p *Parameters) Height() int {
	return int(avcodec.GetParHeight(p.raw()))
}

// PixelFormat returns the video pixel format.
func (p *Parameters) PixelFormat() PixelFormat {
	return PixelFormat(avcodec.GetParFormat(p.raw()))
}

// BitRate returns the average bitrate in bit/s.
func (p *Parameters) BitRate() int64 {
	return avcodec.GetParBitRate(p.raw())
}

// CopyTo copies every field into dst.
func (p *Parameters) CopyTo(dst *Parameters) error {
	if err := p.h.check(); err != nil {
		return err
	}
	if err := dst.h.check(); err != nil {
		return err
	}
	return avcodec.ParametersCopy(dst.raw(), p.raw())
}

// Close frees owned parameters; borrowed parameters are only detached.
func (p *Parameters) Close() error {
	p.h.close()
	return nil
}
