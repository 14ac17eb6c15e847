//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
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

// writePNG writes a w x h gradient PNG into the test's temp dir.
func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllocContext(t *testing.T) {
	skipIfNoFFmpeg(t)
	ctx := AllocContext()
	if ctx == nil {
		t.Fatal("AllocContext returned nil")
	}
	FreeContext(ctx)
}

func TestOpenInputPNG(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := writePNG(t, 48, 32)

	var ctx FormatContext
	if err := OpenInput(&ctx, path, nil, nil); err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer CloseInput(&ctx)

	if err := FindStreamInfo(ctx, nil); err != nil {
		t.Fatalf("FindStreamInfo: %v", err)
	}
	if n := GetNumStreams(ctx); n != 1 {
		t.Fatalf("GetNumStreams = %d, want 1", n)
	}

	stream := GetStream(ctx, 0)
	if stream == nil {
		t.Fatal("GetStream(0) returned nil")
	}
	if GetStreamIndex(stream) != 0 {
		t.Errorf("GetStreamIndex = %d, want 0", GetStreamIndex(stream))
	}
	par := GetStreamCodecPar(stream)
	if avcodec.GetParCodecType(par) != avutil.MediaTypeVideo {
		t.Errorf("codec type = %v, want video", avcodec.GetParCodecType(par))
	}
	if avcodec.GetParCodecID(par) != avcodec.CodecIDPNG {
		t.Errorf("codec id = %v, want png", avcodec.GetParCodecID(par))
	}
	if avcodec.GetParWidth(par) != 48 || avcodec.GetParHeight(par) != 32 {
		t.Errorf("size = %dx%d, want 48x32", avcodec.GetParWidth(par), avcodec.GetParHeight(par))
	}
	if GetStream(ctx, 1) != nil {
		t.Error("GetStream out of range should be nil")
	}
	if GetInputFormatName(ctx) == "" {
		t.Error("GetInputFormatName returned empty")
	}

	pkt := avcodec.PacketAlloc()
	defer avcodec.PacketFree(&pkt)
	if err := ReadFrame(ctx, pkt); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if avcodec.GetPacketSize(pkt) <= 0 {
		t.Error("first packet is empty")
	}
}

func TestOpenInputMissing(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx := AllocContext()
	err := OpenInput(&ctx, filepath.Join(t.TempDir(), "missing.png"), nil, nil)
	if err == nil {
		CloseInput(&ctx)
		t.Fatal("OpenInput succeeded on a missing file")
	}
	if ctx != nil {
		t.Error("FFmpeg should free the context and nil the pointer on failure")
	}
	if avutil.Code(err) >= 0 {
		t.Errorf("error code = %d, want negative", avutil.Code(err))
	}
}

func TestFindInputFormat(t *testing.T) {
	skipIfNoFFmpeg(t)
	if FindInputFormat("png_pipe") == nil {
		t.Error("png_pipe demuxer not found")
	}
	if FindInputFormat("no-such-demuxer") != nil {
		t.Error("found a bogus demuxer")
	}
	if FindInputFormat("") != nil {
		t.Error("empty name should yield nil")
	}
}

func TestNilAccessors(t *testing.T) {
	if GetNumStreams(nil) != 0 || GetStream(nil, 0) != nil || GetIOContext(nil) != nil {
		t.Error("nil context accessors should return zero values")
	}
	if GetStreamIndex(nil) != -1 || GetStreamCodecPar(nil) != nil {
		t.Error("nil stream accessors should return zero values")
	}
}
