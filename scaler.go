//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffmedia/swscale"
)

// ScaleFlags controls the scaling algorithm.
type ScaleFlags int32

const (
	// ScaleFastBilinear uses fast bilinear scaling (lowest quality, fastest).
	ScaleFastBilinear ScaleFlags = swscale.FlagFastBilinear

	// ScaleBilinear uses bilinear scaling (good balance of quality/speed).
	ScaleBilinear ScaleFlags = swscale.FlagBilinear

	// ScaleBicubic uses bicubic scaling (high quality).
	ScaleBicubic ScaleFlags = swscale.FlagBicubic

	// ScaleLanczos uses Lanczos scaling (highest quality, slowest).
	ScaleLanczos ScaleFlags = swscale.FlagLanczos

	// ScalePoint uses nearest neighbor (fastest, no interpolation).
	ScalePoint ScaleFlags = swscale.FlagPoint

	// ScaleArea uses area averaging, suited to downscaling.
	ScaleArea ScaleFlags = swscale.FlagArea
)

// ScalerConfig fully describes a conversion.
type ScalerConfig struct {
	SrcWidth  int
	SrcHeight int
	SrcFormat PixelFormat

	DstWidth  int
	DstHeight int
	DstFormat PixelFormat

	// Flags defaults to ScaleBilinear.
	Flags ScaleFlags
}

// ScalerOption overrides the destination of NewScalerFromCodecContext.
type ScalerOption func(*ScalerConfig)

// WithDstSize sets the destination dimensions.
func WithDstSize(width, height int) ScalerOption {
	return func(cfg *ScalerConfig) {
		cfg.DstWidth = width
		cfg.DstHeight = height
	}
}

// WithDstFormat sets the destination pixel format.
func WithDstFormat(format PixelFormat) ScalerOption {
	return func(cfg *ScalerConfig) {
		cfg.DstFormat = format
	}
}

// WithFlags sets the scaling algorithm.
func WithFlags(flags ScaleFlags) ScalerOption {
	return func(cfg *ScalerConfig) {
		cfg.Flags = flags
	}
}

// Scaler is an owned SwsContext converting frames of one geometry and pixel
// format into another.
type Scaler struct {
	h   handle
	cfg ScalerConfig
}

// NewScaler creates a scaler for cfg.
func NewScaler(cfg ScalerConfig) (*Scaler, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if !swscale.Available() {
		return nil, errors.New("ffmedia: swscale library not available")
	}
	if cfg.SrcWidth <= 0 || cfg.SrcHeight <= 0 {
		return nil, fmt.Errorf("ffmedia: invalid source dimensions %dx%d", cfg.SrcWidth, cfg.SrcHeight)
	}
	if cfg.DstWidth <= 0 || cfg.DstHeight <= 0 {
		return nil, fmt.Errorf("ffmedia: invalid destination dimensions %dx%d", cfg.DstWidth, cfg.DstHeight)
	}
	if cfg.Flags == 0 {
		cfg.Flags = ScaleBilinear
	}
	if !swscale.IsSupportedInput(cfg.SrcFormat) {
		return nil, fmt.Errorf("%w: %s as scaler input", ErrUnsupportedPixelFormat, cfg.SrcFormat)
	}
	if !swscale.IsSupportedOutput(cfg.DstFormat) {
		return nil, fmt.Errorf("%w: %s as scaler output", ErrUnsupportedPixelFormat, cfg.DstFormat)
	}

	ctx := swscale.GetContext(
		cfg.SrcWidth, cfg.SrcHeight, cfg.SrcFormat,
		cfg.DstWidth, cfg.DstHeight, cfg.DstFormat,
		int32(cfg.Flags),
	)
	if ctx == nil {
		return nil, fmt.Errorf("%w: %dx%d %s -> %dx%d %s", ErrUnsupportedPixelFormat,
			cfg.SrcWidth, cfg.SrcHeight, cfg.SrcFormat, cfg.DstWidth, cfg.DstHeight, cfg.DstFormat)
	}
	s := &Scaler{
		h: handle{ptr: ctx, kind: "scaler", free: func(p *unsafe.Pointer) {
			swscale.FreeContext(*p)
			*p = nil
		}},
		cfg: cfg,
	}
	runtime.SetFinalizer(s, (*Scaler).Close)
	return s, nil
}

// NewScalerFromCodecContext creates a scaler whose source is the context's
// geometry. The destination defaults to the source unless overridden.
func NewScalerFromCodecContext(ctx *CodecContext, opts ...ScalerOption) (*Scaler, error) {
	if err := ctx.h.check(); err != nil {
		return nil, err
	}
	cfg := ScalerConfig{
		SrcWidth:  ctx.Width(),
		SrcHeight: ctx.Height(),
		SrcFormat: ctx.PixelFormat(),
		DstWidth:  ctx.Width(),
		DstHeight: ctx.Height(),
		DstFormat: ctx.PixelFormat(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewScaler(cfg)
}

// Config returns the scaler's configuration.
func (s *Scaler) Config() ScalerConfig {
	return s.cfg
}

// Matches reports whether the scaler converts exactly the given geometries.
func (s *Scaler) Matches(srcW, srcH int, srcFmt PixelFormat, dstW, dstH int, dstFmt PixelFormat) bool {
	c := s.cfg
	return !s.h.closed() &&
		c.SrcWidth == srcW && c.SrcHeight == srcH && c.SrcFormat == srcFmt &&
		c.DstWidth == dstW && c.DstHeight == dstH && c.DstFormat == dstFmt
}

// NewDestinationFrame allocates a frame sized for the scaler's output.
func (s *Scaler) NewDestinationFrame() (*Frame, error) {
	return NewVideoFrame(s.cfg.DstWidth, s.cfg.DstHeight, s.cfg.DstFormat)
}

// ScaleImage converts all of src into dst, whose buffers must already be
// allocated at the destination geometry. It returns the number of output
// rows written.
func (s *Scaler) ScaleImage(src, dst *Frame) (int, error) {
	if err := s.h.check(); err != nil {
		return 0, err
	}
	if err := src.h.check(); err != nil {
		return 0, err
	}
	if err := dst.h.check(); err != nil {
		return 0, err
	}
	c := s.cfg
	if src.Width() != c.SrcWidth || src.Height() != c.SrcHeight || src.PixelFormat() != c.SrcFormat {
		return 0, fmt.Errorf("ffmedia: scaler expects %dx%d %s input, got %dx%d %s",
			c.SrcWidth, c.SrcHeight, c.SrcFormat, src.Width(), src.Height(), src.PixelFormat())
	}
	if !dst.HasBuffers() || dst.Width() != c.DstWidth || dst.Height() != c.DstHeight || dst.PixelFormat() != c.DstFormat {
		return 0, fmt.Errorf("ffmedia: scaler expects an allocated %dx%d %s output, got %dx%d %s",
			c.DstWidth, c.DstHeight, c.DstFormat, dst.Width(), dst.Height(), dst.PixelFormat())
	}
	if err := dst.MakeWritable(); err != nil {
		return 0, err
	}
	return swscale.ScaleFrame(s.h.raw(), dst.raw(), src.raw())
}

// Close frees the scaling context.
func (s *Scaler) Close() error {
	s.h.close()
	return nil
}
