//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"os"
	"testing"

	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := bindings.Load(); err == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
}

func TestFindPNGCodecs(t *testing.T) {
	skipIfNoFFmpeg(t)

	dec := FindDecoder(CodecIDPNG)
	if dec == nil {
		t.Fatal("FindDecoder(PNG) returned nil")
	}
	if got := GetCodecName(dec); got != "png" {
		t.Errorf("GetCodecName = %q, want png", got)
	}
	if GetCodecID(dec) != CodecIDPNG {
		t.Errorf("GetCodecID = %d, want %d", GetCodecID(dec), CodecIDPNG)
	}
	if GetCodecType(dec) != avutil.MediaTypeVideo {
		t.Errorf("GetCodecType = %v, want video", GetCodecType(dec))
	}
	if IsEncoder(dec) {
		t.Error("decoder reported as encoder")
	}

	enc := FindEncoder(CodecIDPNG)
	if enc == nil {
		t.Fatal("FindEncoder(PNG) returned nil")
	}
	if !IsEncoder(enc) {
		t.Error("encoder not reported as encoder")
	}
}

func TestFindByNameMissing(t *testing.T) {
	skipIfNoFFmpeg(t)
	if FindEncoderByName("no-such-encoder") != nil {
		t.Error("FindEncoderByName returned a codec for a bogus name")
	}
}

func TestCodecName(t *testing.T) {
	skipIfNoFFmpeg(t)
	if got := CodecIDH264.String(); got != "h264" {
		t.Errorf("CodecIDH264.String() = %q, want h264", got)
	}
	if got := CodecIDBMP.String(); got != "bmp" {
		t.Errorf("CodecIDBMP.String() = %q, want bmp", got)
	}
}

func TestContextSetters(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx := AllocContext3(FindEncoder(CodecIDPNG))
	if ctx == nil {
		t.Fatal("AllocContext3 returned nil")
	}
	defer FreeContext(&ctx)

	SetCtxSize(ctx, 640, 480)
	SetCtxPixFmt(ctx, avutil.PixelFormatRGB24)
	SetCtxTimeBase(ctx, avutil.NewRational(1, 25))
	SetCtxGopSize(ctx, 10)
	SetCtxMaxBFrames(ctx, 1)
	SetCtxBitRate(ctx, 400000)

	if GetCtxWidth(ctx) != 640 || GetCtxHeight(ctx) != 480 {
		t.Errorf("size = %dx%d, want 640x480", GetCtxWidth(ctx), GetCtxHeight(ctx))
	}
	if GetCtxPixFmt(ctx) != avutil.PixelFormatRGB24 {
		t.Errorf("pix_fmt = %v, want rgb24", GetCtxPixFmt(ctx))
	}
	if tb := GetCtxTimeBase(ctx); tb.Num != 1 || tb.Den != 25 {
		t.Errorf("time_base = %v, want 1/25", tb)
	}
	if GetCtxGopSize(ctx) != 10 {
		t.Errorf("gop = %d, want 10", GetCtxGopSize(ctx))
	}
	if GetCtxMaxBFrames(ctx) != 1 {
		t.Errorf("max_b_frames = %d, want 1", GetCtxMaxBFrames(ctx))
	}
	if GetCtxBitRate(ctx) != 400000 {
		t.Errorf("bit_rate = %d, want 400000", GetCtxBitRate(ctx))
	}
}

func TestParametersRoundTrip(t *testing.T) {
	skipIfNoFFmpeg(t)

	par := ParametersAlloc()
	if par == nil {
		t.Fatal("ParametersAlloc returned nil")
	}
	defer ParametersFree(&par)
	SetParVideo(par, CodecIDPNG, 32, 16, avutil.PixelFormatRGB24)

	ctx := AllocContext3(nil)
	defer FreeContext(&ctx)
	if err := ParametersToContext(ctx, par); err != nil {
		t.Fatalf("ParametersToContext: %v", err)
	}
	if GetCtxWidth(ctx) != 32 || GetCtxHeight(ctx) != 16 {
		t.Errorf("ctx size = %dx%d, want 32x16", GetCtxWidth(ctx), GetCtxHeight(ctx))
	}
	if GetCtxCodecID(ctx) != CodecIDPNG {
		t.Errorf("ctx codec = %v, want png", GetCtxCodecID(ctx))
	}

	back := ParametersAlloc()
	defer ParametersFree(&back)
	if err := ParametersFromContext(back, ctx); err != nil {
		t.Fatalf("ParametersFromContext: %v", err)
	}
	if GetParWidth(back) != 32 || avutil.PixelFormat(GetParFormat(back)) != avutil.PixelFormatRGB24 {
		t.Errorf("params width %d format %d, want 32 rgb24", GetParWidth(back), GetParFormat(back))
	}
}

func TestPacketFromData(t *testing.T) {
	skipIfNoFFmpeg(t)

	pkt := PacketAlloc()
	if pkt == nil {
		t.Fatal("PacketAlloc returned nil")
	}
	defer PacketFree(&pkt)

	const size = 5
	buf := avutil.Mallocz(size + avutil.InputBufferPadding)
	if buf == nil {
		t.Fatal("Mallocz returned nil")
	}
	if err := PacketFromData(pkt, buf, size); err != nil {
		avutil.Free(buf)
		t.Fatalf("PacketFromData: %v", err)
	}
	if GetPacketSize(pkt) != size {
		t.Errorf("size = %d, want %d", GetPacketSize(pkt), size)
	}
	if GetPacketData(pkt) != buf {
		t.Error("packet does not point at the supplied buffer")
	}

	PacketUnref(pkt)
	if GetPacketSize(pkt) != 0 || GetPacketData(pkt) != nil {
		t.Error("PacketUnref should reset data and size")
	}
}

func TestPacketFreeNil(t *testing.T) {
	PacketFree(nil)
	var pkt Packet
	PacketFree(&pkt)
}

func TestCodecIDIsLossless(t *testing.T) {
	if !CodecIDPNG.IsLossless() {
		t.Error("PNG should be lossless")
	}
	if CodecIDMJPEG.IsLossless() {
		t.Error("MJPEG should not be lossless")
	}
}
