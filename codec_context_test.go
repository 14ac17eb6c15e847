//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"testing"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

func newTestEncoder(t *testing.T, id CodecID, width, height int, format PixelFormat) (*CodecContext, error) {
	t.Helper()
	codec, err := FindEncoder(id)
	if err != nil {
		return nil, err
	}
	return NewEncoderContext(codec, EncoderConfig{Width: width, Height: height, PixelFormat: format})
}

func TestEncoderConfigDefaults(t *testing.T) {
	cfg := EncoderConfig{}.withDefaults()
	if cfg.TimeBase != NewRational(1, 25) {
		t.Errorf("TimeBase = %v, want 1/25", cfg.TimeBase)
	}
	if cfg.FrameRate != NewRational(25, 1) {
		t.Errorf("FrameRate = %v, want 25/1", cfg.FrameRate)
	}
	if cfg.GOPSize != 10 {
		t.Errorf("GOPSize = %d, want 10", cfg.GOPSize)
	}
	if cfg.MaxBFrames != 1 {
		t.Errorf("MaxBFrames = %d, want 1", cfg.MaxBFrames)
	}

	cfg = EncoderConfig{MaxBFrames: -1, GOPSize: 1}.withDefaults()
	if cfg.MaxBFrames != 0 || cfg.GOPSize != 1 {
		t.Errorf("explicit settings overridden: %+v", cfg)
	}
}

func TestCodecStateString(t *testing.T) {
	tests := map[CodecState]string{
		StateUnopened:   "unopened",
		StateConfigured: "configured",
		StateOpened:     "opened",
		StateClosed:     "closed",
		CodecState(9):   "CodecState(9)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}

func TestEncoderOpenRequiresGeometry(t *testing.T) {
	skipIfNoFFmpeg(t)

	codec, err := FindEncoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("FindEncoder: %v", err)
	}
	ctx, err := NewCodecContext(codec)
	if err != nil {
		t.Fatalf("NewCodecContext: %v", err)
	}
	defer ctx.Close()

	if ctx.State() != StateUnopened {
		t.Errorf("State() = %v, want unopened", ctx.State())
	}
	if err := ctx.Open(); !errors.Is(err, ErrMissingGeometry) {
		t.Errorf("Open without geometry = %v, want ErrMissingGeometry", err)
	}
	if err := ctx.SendFrame(); !errors.Is(err, ErrNotOpened) {
		t.Errorf("SendFrame before Open = %v, want ErrNotOpened", err)
	}
}

func TestEncoderContextLifecycle(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, err := newTestEncoder(t, CodecIDPNG, 32, 24, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewEncoderContext: %v", err)
	}
	if ctx.State() != StateOpened {
		t.Errorf("State() = %v, want opened", ctx.State())
	}
	if ctx.Width() != 32 || ctx.Height() != 24 || ctx.PixelFormat() != PixelFormatRGB24 {
		t.Errorf("geometry = %dx%d %v", ctx.Width(), ctx.Height(), ctx.PixelFormat())
	}
	if ctx.GOPSize() != 10 {
		t.Errorf("GOPSize() = %d, want 10", ctx.GOPSize())
	}
	frame := ctx.LastFrame()
	if !frame.HasBuffers() || frame.Width() != 32 || frame.Height() != 24 {
		t.Errorf("current frame not presized: %dx%d buffers=%v", frame.Width(), frame.Height(), frame.HasBuffers())
	}
	if err := ctx.ApplyFormatWithParameters(nil); !errors.Is(err, ErrAlreadyOpened) {
		t.Errorf("ApplyFormatWithParameters after Open = %v, want ErrAlreadyOpened", err)
	}

	size, err := ctx.CalculateBufferSize(PixelFormatRGB24)
	if err != nil || size != 32*24*3 {
		t.Errorf("CalculateBufferSize = %d, %v; want %d", size, err, 32*24*3)
	}

	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ctx.State() != StateClosed {
		t.Errorf("State() after Close = %v", ctx.State())
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := ctx.SendFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("SendFrame after Close = %v, want ErrClosed", err)
	}
}

func TestEncodePacket(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, err := newTestEncoder(t, CodecIDPNG, 16, 16, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewEncoderContext: %v", err)
	}
	defer ctx.Close()

	if err := ctx.FillData(packedRows(16*3, 16)); err != nil {
		t.Fatalf("FillData: %v", err)
	}
	if err := ctx.SendFrame(); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	pkt, err := NewPacket()
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	defer pkt.Close()
	if err := ctx.ReceivePacket(pkt); err != nil {
		t.Fatalf("ReceivePacket: %v", err)
	}
	data := pkt.Bytes()
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("packet does not hold a PNG: % x", data[:min(len(data), 8)])
	}
	if ctx.LastFrame().PTS() != 0 {
		t.Errorf("first frame PTS = %d, want 0", ctx.LastFrame().PTS())
	}
}

func TestCopyIntoWithNewSize(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, err := newTestEncoder(t, CodecIDPNG, 40, 30, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewEncoderContext: %v", err)
	}
	defer ctx.Close()

	b, err := ctx.Builder()
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}
	defer b.Close()
	resized, err := b.Size(20, 10).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer resized.Close()

	if resized.Width() != 20 || resized.Height() != 10 {
		t.Errorf("resized geometry = %dx%d, want 20x10", resized.Width(), resized.Height())
	}
	if resized.PixelFormat() != PixelFormatRGB24 || resized.CodecID() != CodecIDPNG {
		t.Errorf("resized lost settings: %v %v", resized.PixelFormat(), resized.CodecID())
	}
	if ctx.Width() != 40 {
		t.Errorf("source context changed width to %d", ctx.Width())
	}

	copied, err := ctx.CopyInto()
	if err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	defer copied.Close()
	if copied.Width() != 40 || copied.Height() != 30 {
		t.Errorf("copy geometry = %dx%d, want 40x30", copied.Width(), copied.Height())
	}
}

func pngPredictor(t *testing.T, ctx *CodecContext) int64 {
	t.Helper()
	v, err := avutil.OptGetInt(ctx.raw(), "pred")
	if err != nil {
		t.Fatalf("read pred option: %v", err)
	}
	return v
}

func TestBuilderKeepsOptionsAndBuildsTwice(t *testing.T) {
	skipIfNoFFmpeg(t)

	codec, err := FindEncoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("FindEncoder: %v", err)
	}
	ctx, err := NewEncoderContext(codec, EncoderConfig{
		Width:       16,
		Height:      12,
		PixelFormat: PixelFormatRGB24,
		MaxBFrames:  -1,
		Options:     map[string]string{"pred": "paeth"},
	})
	if err != nil {
		t.Fatalf("NewEncoderContext: %v", err)
	}
	defer ctx.Close()

	const paeth = 4
	if got := pngPredictor(t, ctx); got != paeth {
		t.Fatalf("pred = %d, want %d", got, paeth)
	}

	b, err := ctx.Builder()
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}
	defer b.Close()

	first, err := b.Build()
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	defer first.Close()
	second, err := b.Size(8, 6).Build()
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	defer second.Close()

	if second.Width() != 8 || second.Height() != 6 {
		t.Errorf("second geometry = %dx%d, want 8x6", second.Width(), second.Height())
	}
	for name, c := range map[string]*CodecContext{"first": first, "second": second} {
		if got := pngPredictor(t, c); got != paeth {
			t.Errorf("%s build pred = %d, want %d", name, got, paeth)
		}
	}

	copied, err := ctx.CopyInto()
	if err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	defer copied.Close()
	if got := pngPredictor(t, copied); got != paeth {
		t.Errorf("copy pred = %d, want %d", got, paeth)
	}
}
