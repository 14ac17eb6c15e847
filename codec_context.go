//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"fmt"
	"maps"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// CodecState is the lifecycle stage of a CodecContext. Transitions only move
// forward; a closed context cannot be reopened.
type CodecState int

const (
	// StateUnopened: allocated, codec bound, parameters not applied.
	StateUnopened CodecState = iota
	// StateConfigured: parameters applied from a stream, frame or builder.
	StateConfigured
	// StateOpened: codec initialized, ready for send/receive.
	StateOpened
	// StateClosed: freed.
	StateClosed
)

// String returns the state name.
func (s CodecState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConfigured:
		return "configured"
	case StateOpened:
		return "opened"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("CodecState(%d)", int(s))
	}
}

// CodecContext is an owned decode or encode session bound to one codec.
//
// It carries a current-frame slot: ReceiveFrame decodes into it and SendFrame
// encodes from it, so the most recent picture is always at LastFrame.
type CodecContext struct {
	h     handle
	codec *Codec
	state CodecState
	frame *Frame

	// options are the private options the context was opened with.
	options map[string]string

	nextPTS int64
}

// EncoderConfig configures NewEncoderContext. Zero fields take defaults:
// time base 1/25, frame rate 25/1, GOP size 10, one B-frame.
type EncoderConfig struct {
	Width       int
	Height      int
	PixelFormat PixelFormat

	// BitRate in bit/s; 0 leaves the codec default.
	BitRate int64

	TimeBase  Rational
	FrameRate Rational

	GOPSize int

	// MaxBFrames 0 means the default of 1; negative disables B-frames.
	MaxBFrames int

	// Options are codec private AVOptions passed to avcodec_open2,
	// e.g. {"preset": "fast"}.
	Options map[string]string
}

func (cfg EncoderConfig) withDefaults() EncoderConfig {
	if cfg.TimeBase.IsZero() {
		cfg.TimeBase = NewRational(1, 25)
	}
	if cfg.FrameRate.IsZero() {
		cfg.FrameRate = NewRational(25, 1)
	}
	if cfg.GOPSize == 0 {
		cfg.GOPSize = 10
	}
	switch {
	case cfg.MaxBFrames == 0:
		cfg.MaxBFrames = 1
	case cfg.MaxBFrames < 0:
		cfg.MaxBFrames = 0
	}
	return cfg
}

func newCodecContext(codec *Codec) (*CodecContext, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	var raw avcodec.Codec
	if codec != nil {
		raw = codec.ptr
	}
	h, err := newHandle(avcodec.AllocContext3(raw), "codec context", avcodec.FreeContext)
	if err != nil {
		return nil, err
	}
	frame, err := NewFrame()
	if err != nil {
		h.close()
		return nil, err
	}
	c := &CodecContext{h: h, codec: codec, frame: frame}
	runtime.SetFinalizer(c, (*CodecContext).Close)
	return c, nil
}

// NewCodecContext allocates an unopened context for codec. Apply parameters
// with ApplyFormat or ApplyFormatWithParameters, then call Open.
func NewCodecContext(codec *Codec) (*CodecContext, error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: nil codec", ErrCodecNotFound)
	}
	return newCodecContext(codec)
}

// NewCodecContextFromStream creates an opened decoder for a demuxed stream.
func NewCodecContextFromStream(codec *Codec, stream *Stream) (*CodecContext, error) {
	c, err := NewCodecContext(codec)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyFormat(stream); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Open(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewEncoderContext creates an opened encoder with a current frame presized
// to the configured geometry.
func NewEncoderContext(codec *Codec, cfg EncoderConfig) (*CodecContext, error) {
	cfg = cfg.withDefaults()
	b := NewCodecContextBuilder(codec).
		Size(cfg.Width, cfg.Height).
		PixelFormat(cfg.PixelFormat).
		TimeBase(cfg.TimeBase).
		FrameRate(cfg.FrameRate).
		GOPSize(cfg.GOPSize).
		MaxBFrames(cfg.MaxBFrames)
	if cfg.BitRate > 0 {
		b.BitRate(cfg.BitRate)
	}
	for k, v := range cfg.Options {
		b.Option(k, v)
	}
	return b.Build()
}

// NewCodecContextFromFrame creates an opened encoder with frame's size and
// pixel format; the geometry fields of cfg are ignored.
func NewCodecContextFromFrame(codec *Codec, frame *Frame, cfg EncoderConfig) (*CodecContext, error) {
	if err := frame.h.check(); err != nil {
		return nil, err
	}
	cfg.Width = frame.Width()
	cfg.Height = frame.Height()
	cfg.PixelFormat = frame.PixelFormat()
	return NewEncoderContext(codec, cfg)
}

func (c *CodecContext) raw() avcodec.Context {
	return c.h.raw()
}

// Codec returns the bound codec.
func (c *CodecContext) Codec() *Codec {
	return c.codec
}

// State returns the lifecycle stage.
func (c *CodecContext) State() CodecState {
	return c.state
}

// IsEncoder reports whether the context encodes.
func (c *CodecContext) IsEncoder() bool {
	return c.codec != nil && c.codec.IsEncoder()
}

// MediaType returns the media type of the session.
func (c *CodecContext) MediaType() MediaType {
	return avcodec.GetCtxCodecType(c.raw())
}

// CodecID returns the codec id of the session.
func (c *CodecContext) CodecID() CodecID {
	return avcodec.GetCtxCodecID(c.raw())
}

// Width returns the configured width.
func (c *CodecContext) Width() int {
	return int(avcodec.GetCtxWidth(c.raw()))
}

// Height returns the configured height.
func (c *CodecContext) Height() int {
	return int(avcodec.GetCtxHeight(c.raw()))
}

// PixelFormat returns the configured pixel format.
func (c *CodecContext) PixelFormat() PixelFormat {
	return avcodec.GetCtxPixFmt(c.raw())
}

// TimeBase returns the session time base.
func (c *CodecContext) TimeBase() Rational {
	return avcodec.GetCtxTimeBase(c.raw())
}

// FrameRate returns the session frame rate.
func (c *CodecContext) FrameRate() Rational {
	return avcodec.GetCtxFramerate(c.raw())
}

// BitRate returns the session bitrate.
func (c *CodecContext) BitRate() int64 {
	return avcodec.GetCtxBitRate(c.raw())
}

// GOPSize returns the keyframe interval.
func (c *CodecContext) GOPSize() int {
	return int(avcodec.GetCtxGopSize(c.raw()))
}

// MaxBFrames returns the maximum run of B-frames.
func (c *CodecContext) MaxBFrames() int {
	return int(avcodec.GetCtxMaxBFrames(c.raw()))
}

// setSize records new dimensions on the context. Decoders overwrite them
// from the bitstream; it keeps queries consistent with the current frame.
func (c *CodecContext) setSize(width, height int) {
	avcodec.SetCtxSize(c.raw(), int32(width), int32(height))
}

func (c *CodecContext) setPixelFormat(format PixelFormat) {
	avcodec.SetCtxPixFmt(c.raw(), format)
}

func (c *CodecContext) checkConfigurable() error {
	switch c.state {
	case StateOpened:
		return ErrAlreadyOpened
	case StateClosed:
		return closedError("codec context")
	}
	return nil
}

// ApplyFormat copies a stream's codec parameters into an unopened context.
func (c *CodecContext) ApplyFormat(stream *Stream) error {
	return c.ApplyFormatWithParameters(stream.Parameters())
}

// ApplyFormatWithParameters copies codec parameters into an unopened context.
func (c *CodecContext) ApplyFormatWithParameters(params *Parameters) error {
	if err := c.checkConfigurable(); err != nil {
		return err
	}
	if err := params.h.check(); err != nil {
		return err
	}
	if err := avcodec.ParametersToContext(c.raw(), params.raw()); err != nil {
		return err
	}
	c.state = StateConfigured
	return nil
}

// Parameters extracts the session's negotiated parameters into a new owned
// Parameters.
func (c *CodecContext) Parameters() (*Parameters, error) {
	if err := c.h.check(); err != nil {
		return nil, err
	}
	p, err := NewParameters()
	if err != nil {
		return nil, err
	}
	if err := avcodec.ParametersFromContext(p.raw(), c.raw()); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Open initializes the codec. Encoders need width, height and pixel format.
func (c *CodecContext) Open() error {
	return c.open(nil)
}

func (c *CodecContext) open(options map[string]string) error {
	if err := c.checkConfigurable(); err != nil {
		return err
	}
	if c.codec == nil {
		return fmt.Errorf("%w: context has no codec", ErrCodecNotFound)
	}
	if c.IsEncoder() && c.codec.MediaType() == MediaTypeVideo &&
		(c.Width() <= 0 || c.Height() <= 0 || c.PixelFormat() == PixelFormatNone) {
		return fmt.Errorf("%w: %dx%d %s", ErrMissingGeometry, c.Width(), c.Height(), c.PixelFormat())
	}

	opts, err := NewDictionary(options)
	if err != nil {
		return err
	}
	defer opts.Close()
	if err := avcodec.Open2(c.raw(), c.codec.ptr, opts.rawRef()); err != nil {
		return fmt.Errorf("ffmedia: open %s %s: %w", c.codec.Name(), c.direction(), err)
	}
	if opts.Len() > 0 {
		Logger().Warn("codec options not consumed",
			zap.String("codec", c.codec.Name()),
			zap.Any("options", opts.Entries()))
	}
	c.options = maps.Clone(options)
	c.state = StateOpened
	return nil
}

func (c *CodecContext) direction() string {
	if c.IsEncoder() {
		return "encoder"
	}
	return "decoder"
}

// presizeFrame allocates the current frame at the context's geometry.
func (c *CodecContext) presizeFrame() error {
	return c.frame.AllocBuffer(c.Width(), c.Height(), c.PixelFormat(), 0)
}

func (c *CodecContext) checkOpened() error {
	switch c.state {
	case StateOpened:
		return nil
	case StateClosed:
		return closedError("codec context")
	}
	return ErrNotOpened
}

// SendPacket feeds compressed data to a decoder. A nil packet starts
// draining.
func (c *CodecContext) SendPacket(pkt *Packet) error {
	if err := c.checkOpened(); err != nil {
		return err
	}
	var raw avcodec.Packet
	if pkt != nil {
		raw = pkt.raw()
	}
	return avcodec.SendPacket(c.raw(), raw)
}

// ReceiveFrame decodes the next frame into the current-frame slot. IsAgain
// errors mean more packets are needed; IsEOF errors mean the decoder is
// drained.
func (c *CodecContext) ReceiveFrame() error {
	return c.ReceiveFrameInto(c.frame)
}

// ReceiveFrameInto decodes the next frame into frame.
func (c *CodecContext) ReceiveFrameInto(frame *Frame) error {
	if err := c.checkOpened(); err != nil {
		return err
	}
	if err := frame.h.check(); err != nil {
		return err
	}
	frame.invalidate()
	return avcodec.ReceiveFrame(c.raw(), frame.raw())
}

// SendFrame encodes the current-frame slot. Frames without a timestamp are
// stamped with consecutive PTS values.
func (c *CodecContext) SendFrame() error {
	return c.SendFrameFrom(c.frame)
}

// SendFrameFrom encodes frame.
func (c *CodecContext) SendFrameFrom(frame *Frame) error {
	if err := c.checkOpened(); err != nil {
		return err
	}
	if err := frame.h.check(); err != nil {
		return err
	}
	if frame.PTS() == avutil.NoPTSValue || frame.PTS() < c.nextPTS {
		frame.SetPTS(c.nextPTS)
	}
	c.nextPTS = frame.PTS() + 1
	return avcodec.SendFrame(c.raw(), frame.raw())
}

// SendEOF starts draining an encoder.
func (c *CodecContext) SendEOF() error {
	if err := c.checkOpened(); err != nil {
		return err
	}
	return avcodec.SendFrame(c.raw(), nil)
}

// ReceivePacket writes the next encoded packet into pkt.
func (c *CodecContext) ReceivePacket(pkt *Packet) error {
	if err := c.checkOpened(); err != nil {
		return err
	}
	if err := pkt.h.check(); err != nil {
		return err
	}
	return avcodec.ReceivePacket(c.raw(), pkt.raw())
}

// LastFrame returns the current-frame slot. The frame is borrowed from the
// context.
func (c *CodecContext) LastFrame() *Frame {
	return c.frame
}

// replaceFrame installs frame as the current frame, taking ownership of it.
func (c *CodecContext) replaceFrame(frame *Frame) {
	if c.frame != nil && c.frame != frame {
		c.frame.Close()
	}
	c.frame = frame
}

// takeFrame detaches the current frame and hands ownership to the caller.
func (c *CodecContext) takeFrame() *Frame {
	f := c.frame
	c.frame = nil
	return f
}

// Flush discards buffered data, e.g. after a seek.
func (c *CodecContext) Flush() {
	if c.state == StateOpened {
		avcodec.FlushBuffers(c.raw())
	}
}

// CalculateBufferSize returns the bytes of a tightly packed image of the
// context's size in format.
func (c *CodecContext) CalculateBufferSize(format PixelFormat) (int, error) {
	if err := c.h.check(); err != nil {
		return 0, err
	}
	size, err := avutil.ImageGetBufferSize(format, int32(c.Width()), int32(c.Height()), 1)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: %s at %dx%d", ErrUnsupportedPixelFormat, format, c.Width(), c.Height())
	}
	return int(size), nil
}

// Builder returns a builder seeded with this context's codec, parameters and
// private options, for deriving a session with some settings changed. The
// builder owns a copy of the parameters; Close releases it. Build may be
// called more than once.
func (c *CodecContext) Builder() (*CodecContextBuilder, error) {
	params, err := c.Parameters()
	if err != nil {
		return nil, err
	}
	b := NewCodecContextBuilder(c.codec)
	b.params = params
	b.detached = true
	maps.Copy(b.options, c.options)
	b.TimeBase(c.TimeBase()).FrameRate(c.FrameRate())
	if c.IsEncoder() {
		b.GOPSize(c.GOPSize()).MaxBFrames(c.MaxBFrames())
	}
	return b, nil
}

// CopyInto creates an independent opened context with the same codec and
// negotiated parameters.
func (c *CodecContext) CopyInto() (*CodecContext, error) {
	b, err := c.Builder()
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return b.Build()
}

// Close frees the context and its current frame.
func (c *CodecContext) Close() error {
	if c.h.closed() {
		return nil
	}
	c.h.close()
	c.state = StateClosed
	var err error
	if c.frame != nil {
		err = multierr.Append(err, c.frame.Close())
		c.frame = nil
	}
	return err
}

// CodecContextBuilder configures and opens a CodecContext through named
// setters.
type CodecContextBuilder struct {
	codec    *Codec
	params   *Parameters
	detached bool
	steps    []func(avcodec.Context)
	options  map[string]string
}

// NewCodecContextBuilder starts a builder for codec.
func NewCodecContextBuilder(codec *Codec) *CodecContextBuilder {
	return &CodecContextBuilder{codec: codec, options: make(map[string]string)}
}

func (b *CodecContextBuilder) step(fn func(avcodec.Context)) *CodecContextBuilder {
	b.steps = append(b.steps, fn)
	return b
}

// Parameters applies codec parameters before the other settings. The builder
// does not take ownership of params.
func (b *CodecContextBuilder) Parameters(params *Parameters) *CodecContextBuilder {
	b.params = params
	return b
}

// Size sets width and height.
func (b *CodecContextBuilder) Size(width, height int) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxSize(ctx, int32(width), int32(height))
	})
}

// PixelFormat sets the pixel format.
func (b *CodecContextBuilder) PixelFormat(format PixelFormat) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxPixFmt(ctx, format)
	})
}

// BitRate sets the target bitrate in bit/s.
func (b *CodecContextBuilder) BitRate(bitRate int64) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxBitRate(ctx, bitRate)
	})
}

// TimeBase sets the timestamp unit.
func (b *CodecContextBuilder) TimeBase(tb Rational) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxTimeBase(ctx, tb)
	})
}

// FrameRate sets the frame rate.
func (b *CodecContextBuilder) FrameRate(rate Rational) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxFramerate(ctx, rate)
	})
}

// GOPSize sets the keyframe interval.
func (b *CodecContextBuilder) GOPSize(n int) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxGopSize(ctx, int32(n))
	})
}

// MaxBFrames sets the maximum run of B-frames.
func (b *CodecContextBuilder) MaxBFrames(n int) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxMaxBFrames(ctx, int32(n))
	})
}

// Flags sets AV_CODEC_FLAG_* bits.
func (b *CodecContextBuilder) Flags(flags int32) *CodecContextBuilder {
	return b.step(func(ctx avcodec.Context) {
		avcodec.SetCtxFlags(ctx, flags)
	})
}

// Option passes a codec private option to avcodec_open2.
func (b *CodecContextBuilder) Option(key, value string) *CodecContextBuilder {
	b.options[key] = value
	return b
}

// Build allocates, configures and opens the context. Video encoders get a
// current frame presized to the final geometry.
func (b *CodecContextBuilder) Build() (ctx *CodecContext, err error) {
	if b.codec == nil {
		return nil, fmt.Errorf("%w: nil codec", ErrCodecNotFound)
	}
	// A detached build copies an existing session: the context starts with
	// no codec and takes its identity from the parameters.
	alloc := b.codec
	if b.detached {
		alloc = nil
	}
	c, err := newCodecContext(alloc)
	if err != nil {
		return nil, err
	}
	c.codec = b.codec
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if b.params != nil {
		if err := c.ApplyFormatWithParameters(b.params); err != nil {
			return nil, err
		}
	}
	for _, fn := range b.steps {
		fn(c.raw())
	}
	c.state = StateConfigured

	if err := c.open(b.options); err != nil {
		return nil, err
	}
	if c.IsEncoder() && c.MediaType() == MediaTypeVideo {
		if err := c.presizeFrame(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close releases the parameters copy held by a builder from
// CodecContext.Builder. Parameters passed to the Parameters setter are not
// owned and stay open.
func (b *CodecContextBuilder) Close() error {
	if b.detached && b.params != nil {
		b.params.Close()
		b.params = nil
	}
	return nil
}
