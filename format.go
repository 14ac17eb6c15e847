//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"fmt"
	"iter"
	"runtime"
	"slices"
	"time"

	"go.uber.org/multierr"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
	"github.com/obinnaokechukwu/ffmedia/avformat"
	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// FormatContext is an owned demuxer session over a file or an in-memory
// buffer.
//
// Stream discovery is lazy: the first FindStream runs FFmpeg's stream-info
// scan once, and per-category results are cached for the context's lifetime.
type FormatContext struct {
	h  handle
	io *IOContext

	streams         map[MediaType][]int
	streamInfoFound bool
	streamInfoErr   error
	streamInfoScans int
}

// OpenFile opens a media file. inputFormat names a demuxer such as "image2"
// or "png_pipe"; empty lets FFmpeg probe.
func OpenFile(path, inputFormat string) (*FormatContext, error) {
	var opts Dictionary
	defer opts.Close()
	return OpenFileWithOptions(path, inputFormat, &opts)
}

// OpenFileWithOptions opens a media file with demuxer options. Entries the
// demuxer did not consume are left in opts for inspection; opts may be nil.
func OpenFileWithOptions(path, inputFormat string, opts *Dictionary) (*FormatContext, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	ifmt, err := findInputFormat(inputFormat)
	if err != nil {
		return nil, err
	}
	var ctx avformat.FormatContext
	if err := avformat.OpenInput(&ctx, path, ifmt, opts.rawRef()); err != nil {
		return nil, fmt.Errorf("ffmedia: failed to open file %q: %w", path, err)
	}
	return newFormatContext(ctx, nil), nil
}

// OpenMemory opens media held in data. The bytes are read through an
// IOContext owned by the returned FormatContext; data must not be modified
// until Close.
func OpenMemory(data []byte, inputFormat string) (*FormatContext, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	ifmt, err := findInputFormat(inputFormat)
	if err != nil {
		return nil, err
	}
	ctx := avformat.AllocContext()
	if ctx == nil {
		return nil, allocError("format context")
	}
	pb, err := newMemoryIOContext(data)
	if err != nil {
		avformat.FreeContext(ctx)
		return nil, err
	}
	avformat.SetIOContext(ctx, pb.raw())

	// avformat_open_input frees ctx on failure but never a caller-supplied pb.
	if err := avformat.OpenInput(&ctx, "", ifmt, nil); err != nil {
		pb.Close()
		return nil, fmt.Errorf("ffmedia: failed to open memory input (%d bytes): %w", len(data), err)
	}
	return newFormatContext(ctx, pb), nil
}

func findInputFormat(name string) (avformat.InputFormat, error) {
	if name == "" {
		return nil, nil
	}
	ifmt := avformat.FindInputFormat(name)
	if ifmt == nil {
		return nil, fmt.Errorf("ffmedia: unknown input format %q", name)
	}
	return ifmt, nil
}

func newFormatContext(ctx avformat.FormatContext, pb *IOContext) *FormatContext {
	fc := &FormatContext{
		h:       handle{ptr: ctx, free: avformat.CloseInput, kind: "format context"},
		io:      pb,
		streams: make(map[MediaType][]int),
	}
	runtime.SetFinalizer(fc, (*FormatContext).Close)
	return fc
}

func (fc *FormatContext) raw() avformat.FormatContext {
	return fc.h.raw()
}

// FormatName returns the short name of the demuxer in use.
func (fc *FormatContext) FormatName() string {
	return avformat.GetInputFormatName(fc.raw())
}

// NumStreams returns the number of elementary streams.
func (fc *FormatContext) NumStreams() int {
	return avformat.GetNumStreams(fc.raw())
}

// Duration returns the container duration, or 0 when unknown.
func (fc *FormatContext) Duration() time.Duration {
	d := avformat.GetDuration(fc.raw())
	if d <= 0 || d == avutil.NoPTSValue {
		return 0
	}
	return time.Duration(d) * time.Microsecond
}

// Stream returns the stream at index. The Stream is borrowed from the
// context.
func (fc *FormatContext) Stream(index int) (*Stream, error) {
	if err := fc.h.check(); err != nil {
		return nil, err
	}
	s := avformat.GetStream(fc.raw(), index)
	if s == nil {
		return nil, fmt.Errorf("%w: index %d of %d", ErrStreamNotFound, index, fc.NumStreams())
	}
	return &Stream{ptr: s, index: index}, nil
}

// FindStream returns the indices of the streams of the given type. The first
// call runs FFmpeg's stream-info scan; results are cached per type.
func (fc *FormatContext) FindStream(mediaType MediaType) ([]int, error) {
	if err := fc.h.check(); err != nil {
		return nil, err
	}
	if err := fc.findStreamInfo(); err != nil {
		return nil, err
	}
	indices, ok := fc.streams[mediaType]
	if !ok {
		for i := range fc.NumStreams() {
			par := avformat.GetStreamCodecPar(avformat.GetStream(fc.raw(), i))
			if avcodec.GetParCodecType(par) == mediaType {
				indices = append(indices, i)
			}
		}
		fc.streams[mediaType] = indices
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no %s stream", ErrStreamNotFound, mediaType)
	}
	return slices.Clone(indices), nil
}

var scanStreamInfo = avformat.FindStreamInfo

// findStreamInfo runs the scan at most once; a failure is remembered and
// returned to later callers.
func (fc *FormatContext) findStreamInfo() error {
	if fc.streamInfoFound {
		return fc.streamInfoErr
	}
	fc.streamInfoScans++
	fc.streamInfoFound = true
	if err := scanStreamInfo(fc.raw(), nil); err != nil {
		fc.streamInfoErr = fmt.Errorf("ffmedia: find stream info: %w", err)
	}
	return fc.streamInfoErr
}

// Streams iterates over the streams of the given type. Each call starts a
// fresh pass; a type with no streams yields nothing.
func (fc *FormatContext) Streams(mediaType MediaType) iter.Seq2[int, *Stream] {
	return func(yield func(int, *Stream) bool) {
		indices, err := fc.FindStream(mediaType)
		if err != nil {
			return
		}
		for _, i := range indices {
			s, err := fc.Stream(i)
			if err != nil {
				return
			}
			if !yield(i, s) {
				return
			}
		}
	}
}

// VideoStream iterates over the video streams.
func (fc *FormatContext) VideoStream() iter.Seq2[int, *Stream] {
	return fc.Streams(MediaTypeVideo)
}

// AudioStream iterates over the audio streams.
func (fc *FormatContext) AudioStream() iter.Seq2[int, *Stream] {
	return fc.Streams(MediaTypeAudio)
}

// Packets reads packets in file order and yields those belonging to streams
// of the given type; the caller owns each yielded packet. Packets of other
// streams are discarded. Iteration ends at end of input or at the first
// packet whose stream index is above every index of interest. Read errors
// other than end of input are yielded once. The sequence is single-pass.
func (fc *FormatContext) Packets(mediaType MediaType) iter.Seq2[*Packet, error] {
	return func(yield func(*Packet, error) bool) {
		indices, err := fc.FindStream(mediaType)
		if err != nil {
			yield(nil, err)
			return
		}
		last := slices.Max(indices)
		for {
			pkt, err := NewPacket()
			if err != nil {
				yield(nil, err)
				return
			}
			if err := fc.ReadFrame(pkt); err != nil {
				pkt.Close()
				if !IsEOF(err) {
					yield(nil, err)
				}
				return
			}
			switch routePacket(pkt.StreamIndex(), indices, last) {
			case packetStop:
				pkt.Close()
				return
			case packetSkip:
				pkt.Close()
				continue
			}
			if !yield(pkt, nil) {
				return
			}
		}
	}
}

type packetRoute int

const (
	packetKeep packetRoute = iota
	packetSkip
	packetStop
)

// routePacket decides what Packets does with a packet of stream idx when the
// caller wants indices, whose largest element is last.
func routePacket(idx int, indices []int, last int) packetRoute {
	switch {
	case idx > last:
		return packetStop
	case slices.Contains(indices, idx):
		return packetKeep
	}
	return packetSkip
}

// ReadFrame reads the next packet of any stream into pkt.
func (fc *FormatContext) ReadFrame(pkt *Packet) error {
	if err := fc.h.check(); err != nil {
		return err
	}
	if err := pkt.h.check(); err != nil {
		return err
	}
	return avformat.ReadFrame(fc.raw(), pkt.raw())
}

// PixelFormat returns the pixel format recorded in a stream's parameters.
func (fc *FormatContext) PixelFormat(streamIndex int) (PixelFormat, error) {
	s, err := fc.Stream(streamIndex)
	if err != nil {
		return PixelFormatNone, err
	}
	return s.PixelFormat(), nil
}

// Close closes the input and then frees the custom I/O context, if any.
func (fc *FormatContext) Close() error {
	if fc.h.closed() {
		return nil
	}
	fc.h.close()
	var err error
	if fc.io != nil {
		err = multierr.Append(err, fc.io.Close())
		fc.io = nil
	}
	return err
}

// Stream is a borrowed elementary stream of a FormatContext.
type Stream struct {
	ptr   avformat.Stream
	index int
}

// Index returns the stream's index in its container.
func (s *Stream) Index() int {
	return s.index
}

// Parameters returns the stream's codec parameters, borrowed from the stream.
func (s *Stream) Parameters() *Parameters {
	return &Parameters{h: borrowedHandle(avformat.GetStreamCodecPar(s.ptr), "codec parameters")}
}

// MediaType returns the stream category.
func (s *Stream) MediaType() MediaType {
	return avcodec.GetParCodecType(avformat.GetStreamCodecPar(s.ptr))
}

// CodecID returns the stream's codec.
func (s *Stream) CodecID() CodecID {
	return avcodec.GetParCodecID(avformat.GetStreamCodecPar(s.ptr))
}

// Width returns the coded width of a video stream.
func (s *Stream) Width() int {
	return int(avcodec.GetParWidth(avformat.GetStreamCodecPar(s.ptr)))
}

// Height returns the coded height of a video stream.
func (s *Stream) Height() int {
	return int(avcodec.GetParHeight(avformat.GetStreamCodecPar(s.ptr)))
}

// PixelFormat returns the pixel format of a video stream.
func (s *Stream) PixelFormat() PixelFormat {
	return PixelFormat(avcodec.GetParFormat(avformat.GetStreamCodecPar(s.ptr)))
}

// TimeBase returns the unit of the stream's timestamps.
func (s *Stream) TimeBase() Rational {
	return avformat.GetStreamTimeBase(s.ptr)
}

// AvgFrameRate returns the average frame rate, zero when unknown.
func (s *Stream) AvgFrameRate() Rational {
	return avformat.GetStreamAvgFrameRate(s.ptr)
}
