//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// defaultCodecRegistry is shared by every Image not given its own registry.
var defaultCodecRegistry = NewCodecRegistry()

// DefaultCodecRegistry returns the process-wide registry used by Open,
// FromBytes and NewEmpty unless WithCodecRegistry is given.
func DefaultCodecRegistry() *CodecRegistry {
	return defaultCodecRegistry
}

// Image is one decodable or encodable picture. It owns an optional demuxer,
// a decoder or encoder context holding the current frame, and a cached
// scaler. An Image is not safe for concurrent use.
type Image struct {
	format  *FormatContext
	decoder *CodecContext
	encoder *CodecContext
	scaler  *Scaler

	registry    *CodecRegistry
	logger      *zap.Logger
	inputFormat string
	scaleFlags  ScaleFlags
}

// ImageOption configures an Image at construction.
type ImageOption func(*Image)

// WithLogger sets the logger used for warnings about the image.
func WithLogger(l *zap.Logger) ImageOption {
	return func(img *Image) {
		img.logger = l
	}
}

// WithCodecRegistry shares a codec lookup cache between images.
func WithCodecRegistry(r *CodecRegistry) ImageOption {
	return func(img *Image) {
		img.registry = r
	}
}

// WithInputFormat forces the demuxer, e.g. "png_pipe" or "image2".
func WithInputFormat(name string) ImageOption {
	return func(img *Image) {
		img.inputFormat = name
	}
}

// WithScaleFlags sets the algorithm used by ResizeTo, ResizeInto and Save.
func WithScaleFlags(flags ScaleFlags) ImageOption {
	return func(img *Image) {
		img.scaleFlags = flags
	}
}

func newImage(opts []ImageOption) *Image {
	img := &Image{scaleFlags: ScaleBicubic}
	for _, opt := range opts {
		opt(img)
	}
	if img.registry == nil {
		img.registry = defaultCodecRegistry
	}
	if img.logger == nil {
		img.logger = Logger()
	}
	return img
}

// Open decodes the first picture of the video stream in the file at path.
func Open(path string, opts ...ImageOption) (*Image, error) {
	img := newImage(opts)
	fc, err := OpenFile(path, img.inputFormat)
	if err != nil {
		return nil, err
	}
	img.format = fc
	if err := img.decodeFirst(); err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

// FromBytes decodes the first picture of an encoded image held in memory.
func FromBytes(data []byte, opts ...ImageOption) (*Image, error) {
	img := newImage(opts)
	fc, err := OpenMemory(data, img.inputFormat)
	if err != nil {
		return nil, err
	}
	img.format = fc
	if err := img.decodeFirst(); err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

// NewEmpty creates an image backed by an opened encoder for codecID with an
// allocated picture of the given geometry.
func NewEmpty(width, height int, format PixelFormat, codecID CodecID, opts ...ImageOption) (*Image, error) {
	img := newImage(opts)
	codec, err := img.registry.Encoder(codecID)
	if err != nil {
		return nil, err
	}
	cfg := EncoderConfig{Width: width, Height: height, PixelFormat: format}
	if _, ok := stillImageEncoders[codecID]; ok {
		cfg.MaxBFrames = -1
	}
	enc, err := NewEncoderContext(codec, cfg)
	if err != nil {
		return nil, err
	}
	img.encoder = enc
	return img, nil
}

// decodeFirst opens a decoder for the first video stream and decodes one
// picture into its current frame. Packets after that picture are counted and
// dropped.
func (img *Image) decodeFirst() error {
	indices, err := img.format.FindStream(MediaTypeVideo)
	if err != nil {
		return err
	}
	stream, err := img.format.Stream(indices[0])
	if err != nil {
		return err
	}
	codec, err := img.registry.Decoder(stream.CodecID())
	if err != nil {
		return err
	}
	dec, err := NewCodecContextFromStream(codec, stream)
	if err != nil {
		return err
	}
	img.decoder = dec

	decoded := false
	ignored := 0
	for pkt, err := range img.format.Packets(MediaTypeVideo) {
		if err != nil {
			return err
		}
		if decoded || pkt.StreamIndex() != stream.Index() {
			ignored++
			pkt.Close()
			continue
		}
		err = dec.SendPacket(pkt)
		pkt.Close()
		if err != nil && !IsAgain(err) {
			return fmt.Errorf("ffmedia: decode %s: %w", codec.Name(), err)
		}
		switch err := dec.ReceiveFrame(); {
		case err == nil:
			decoded = true
		case IsAgain(err):
		default:
			return fmt.Errorf("ffmedia: decode %s: %w", codec.Name(), err)
		}
	}
	if !decoded {
		if err := dec.SendPacket(nil); err != nil && !IsEOF(err) {
			return fmt.Errorf("ffmedia: drain %s: %w", codec.Name(), err)
		}
		if err := dec.ReceiveFrame(); err != nil {
			return fmt.Errorf("ffmedia: no picture decoded from %s stream: %w", codec.Name(), err)
		}
	}
	if ignored > 0 {
		img.logger.Warn("ignoring packets after the first picture",
			zap.String("format", img.format.FormatName()),
			zap.Int("packets", ignored))
	}
	return nil
}

// context returns the encoder if present, else the decoder.
func (img *Image) context() (*CodecContext, error) {
	switch {
	case img.encoder != nil:
		return img.encoder, nil
	case img.decoder != nil:
		return img.decoder, nil
	}
	return nil, ErrNoCodecContext
}

// Size returns the picture dimensions, or zeros for a closed image.
func (img *Image) Size() (width, height int) {
	ctx, err := img.context()
	if err != nil {
		return 0, 0
	}
	return ctx.Width(), ctx.Height()
}

// PixelFormat returns the picture's pixel format.
func (img *Image) PixelFormat() PixelFormat {
	ctx, err := img.context()
	if err != nil {
		return PixelFormatNone
	}
	return ctx.PixelFormat()
}

// Frame returns the current picture, borrowed from the image. It is replaced
// by ResizeTo, ResizeInto and ApplyFilter.
func (img *Image) Frame() *Frame {
	ctx, err := img.context()
	if err != nil {
		return nil
	}
	return ctx.LastFrame()
}

// RawData returns plane 0 of the current picture including row padding.
func (img *Image) RawData() []byte {
	f := img.Frame()
	if f == nil {
		return nil
	}
	return f.RawData()
}

// ResizeTo scales the picture to width x height keeping its pixel format.
func (img *Image) ResizeTo(width, height int) error {
	ctx, err := img.context()
	if err != nil {
		return err
	}
	return img.ResizeInto(width, height, ctx.PixelFormat())
}

// ResizeInto scales and converts the picture. The codec context follows the
// new geometry; an opened encoder is recreated for it.
func (img *Image) ResizeInto(width, height int, format PixelFormat) error {
	ctx, err := img.context()
	if err != nil {
		return err
	}
	src := ctx.LastFrame()
	if !src.HasBuffers() {
		return errors.New("ffmedia: image has no picture to resize")
	}
	dst, err := img.convert(src, width, height, format)
	if err != nil {
		return err
	}
	return img.install(ctx, dst)
}

// convert scales src into a new frame through the cached scaler.
func (img *Image) convert(src *Frame, width, height int, format PixelFormat) (*Frame, error) {
	if img.scaler == nil || !img.scaler.Matches(src.Width(), src.Height(), src.PixelFormat(), width, height, format) {
		if img.scaler != nil {
			img.scaler.Close()
			img.scaler = nil
		}
		s, err := NewScaler(ScalerConfig{
			SrcWidth:  src.Width(),
			SrcHeight: src.Height(),
			SrcFormat: src.PixelFormat(),
			DstWidth:  width,
			DstHeight: height,
			DstFormat: format,
			Flags:     img.scaleFlags,
		})
		if err != nil {
			return nil, err
		}
		img.scaler = s
	}
	dst, err := img.scaler.NewDestinationFrame()
	if err != nil {
		return nil, err
	}
	if _, err := img.scaler.ScaleImage(src, dst); err != nil {
		dst.Close()
		return nil, err
	}
	dst.SetPTS(src.PTS())
	return dst, nil
}

// install makes frame the current picture of ctx, taking ownership of it.
func (img *Image) install(ctx *CodecContext, frame *Frame) error {
	sameGeometry := frame.Width() == ctx.Width() &&
		frame.Height() == ctx.Height() &&
		frame.PixelFormat() == ctx.PixelFormat()
	if ctx != img.encoder || ctx.State() != StateOpened || sameGeometry {
		ctx.replaceFrame(frame)
		ctx.setSize(frame.Width(), frame.Height())
		ctx.setPixelFormat(frame.PixelFormat())
		return nil
	}

	b, err := ctx.Builder()
	if err != nil {
		frame.Close()
		return err
	}
	defer b.Close()
	enc, err := b.Size(frame.Width(), frame.Height()).PixelFormat(frame.PixelFormat()).Build()
	if err != nil {
		frame.Close()
		return err
	}
	enc.replaceFrame(frame)
	img.encoder = enc
	return ctx.Close()
}

// ApplyFilter runs the current picture through p and replaces it with the
// result.
func (img *Image) ApplyFilter(p *FilterPipeline) error {
	ctx, err := img.context()
	if err != nil {
		return err
	}
	out, err := p.ApplyImage(ctx.LastFrame())
	if err != nil {
		return err
	}
	return img.install(ctx, out)
}

// FillData copies tightly packed pixels into the current picture. See
// CodecContext.FillData for the expected layout.
func (img *Image) FillData(data []byte) error {
	ctx, err := img.context()
	if err != nil {
		return err
	}
	return ctx.FillData(data)
}

// stillImageEncoder maps a file extension to an encoder and the pixel
// formats it accepts; the first format is used for conversion.
type stillImageEncoder struct {
	codec   CodecID
	formats []PixelFormat
}

var (
	pngEncoder  = stillImageEncoder{CodecIDPNG, []PixelFormat{PixelFormatRGB24, PixelFormatRGBA, PixelFormatGray8}}
	bmpEncoder  = stillImageEncoder{CodecIDBMP, []PixelFormat{PixelFormatBGR24, PixelFormatBGRA, PixelFormatGray8}}
	jpegEncoder = stillImageEncoder{CodecIDMJPEG, []PixelFormat{PixelFormatYUVJ420P}}
	tiffEncoder = stillImageEncoder{CodecIDTIFF, []PixelFormat{PixelFormatRGB24, PixelFormatRGBA, PixelFormatGray8}}
)

var saveEncoders = map[string]stillImageEncoder{
	".png":  pngEncoder,
	".bmp":  bmpEncoder,
	".jpg":  jpegEncoder,
	".jpeg": jpegEncoder,
	".tif":  tiffEncoder,
	".tiff": tiffEncoder,
}

var stillImageEncoders = map[CodecID]stillImageEncoder{
	CodecIDPNG:   pngEncoder,
	CodecIDBMP:   bmpEncoder,
	CodecIDMJPEG: jpegEncoder,
	CodecIDTIFF:  tiffEncoder,
}

// Save encodes the current picture and writes the packet to path. An image
// with an encoder uses it; otherwise the encoder is chosen from the file
// extension (.png, .bmp, .jpg, .jpeg, .tif, .tiff).
func (img *Image) Save(path string) error {
	ctx, err := img.context()
	if err != nil {
		return err
	}
	if !ctx.LastFrame().HasBuffers() {
		return errors.New("ffmedia: image has no picture to save")
	}

	var pkt *Packet
	if ctx == img.encoder {
		pkt, err = img.encodeCurrent()
	} else {
		pkt, err = img.encodeByExtension(path, ctx.LastFrame())
	}
	if err != nil {
		return err
	}
	defer pkt.Close()
	return pkt.Save(path)
}

// encodeCurrent encodes the encoder's current frame. If the encoder had to be
// drained to produce the packet, it is recreated so the image can be saved
// again.
func (img *Image) encodeCurrent() (*Packet, error) {
	enc := img.encoder
	pkt, drained, err := encodePicture(enc, enc.LastFrame())
	if err != nil {
		return nil, err
	}
	if drained {
		fresh, err := enc.CopyInto()
		if err != nil {
			pkt.Close()
			return nil, err
		}
		fresh.replaceFrame(enc.takeFrame())
		img.encoder = fresh
		if err := enc.Close(); err != nil {
			img.logger.Warn("closing drained encoder", zap.Error(err))
		}
	}
	return pkt, nil
}

func (img *Image) encodeByExtension(path string, frame *Frame) (*Packet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	target, ok := saveEncoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no image encoder for extension %q", ErrCodecNotFound, ext)
	}
	codec, err := img.registry.Encoder(target.codec)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(target.formats, frame.PixelFormat()) {
		converted, err := img.convert(frame, frame.Width(), frame.Height(), target.formats[0])
		if err != nil {
			return nil, err
		}
		defer converted.Close()
		frame = converted
	}

	enc, err := NewCodecContextFromFrame(codec, frame, EncoderConfig{MaxBFrames: -1})
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	pkt, _, err := encodePicture(enc, frame)
	return pkt, err
}

// encodePicture sends one frame and receives one packet, draining the encoder
// if it buffers the picture.
func encodePicture(enc *CodecContext, frame *Frame) (pkt *Packet, drained bool, err error) {
	if err := enc.SendFrameFrom(frame); err != nil {
		return nil, false, fmt.Errorf("ffmedia: encode %s: %w", enc.Codec().Name(), err)
	}
	pkt, err = NewPacket()
	if err != nil {
		return nil, false, err
	}
	err = enc.ReceivePacket(pkt)
	if IsAgain(err) {
		drained = true
		if err = enc.SendEOF(); err == nil {
			err = enc.ReceivePacket(pkt)
		}
	}
	if err != nil {
		pkt.Close()
		return nil, drained, fmt.Errorf("ffmedia: encode %s: %w", enc.Codec().Name(), err)
	}
	return pkt, drained, nil
}

// Close frees the scaler, codec contexts and demuxer.
func (img *Image) Close() error {
	var err error
	if img.scaler != nil {
		err = multierr.Append(err, img.scaler.Close())
		img.scaler = nil
	}
	if img.encoder != nil {
		err = multierr.Append(err, img.encoder.Close())
		img.encoder = nil
	}
	if img.decoder != nil {
		err = multierr.Append(err, img.decoder.Close())
		img.decoder = nil
	}
	if img.format != nil {
		err = multierr.Append(err, img.format.Close())
		img.format = nil
	}
	return err
}
