//go:build !ios && !android && (amd64 || arm64)

package avfilter

import (
	"fmt"
	"testing"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

func skipIfNoAVFilter(t *testing.T) {
	t.Helper()
	if err := Init(); err != nil {
		t.Skipf("avfilter not available: %v", err)
	}
}

func TestVersion(t *testing.T) {
	skipIfNoAVFilter(t)
	v := Version()
	major := (v >> 16) & 0xFF
	if major < 8 || major > 15 {
		t.Errorf("unexpected major version: %d", major)
	}
}

func TestGetByName(t *testing.T) {
	skipIfNoAVFilter(t)

	tests := []struct {
		name     string
		expected bool
	}{
		{"buffer", true},
		{"buffersink", true},
		{"scale", true},
		{"format", true},
		{"null", true},
		{"", false},
		{"nonexistent_filter_xyz123", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := GetByName(tc.name)
			if tc.expected && f == nil {
				t.Errorf("GetByName(%q) returned nil, expected filter", tc.name)
			} else if !tc.expected && f != nil {
				t.Errorf("GetByName(%q) returned filter, expected nil", tc.name)
			}
		})
	}
}

func TestNilArguments(t *testing.T) {
	if err := GraphConfig(nil); err == nil {
		t.Error("GraphConfig(nil) should fail")
	}
	if err := Link(nil, 0, nil, 0); err == nil {
		t.Error("Link(nil) should fail")
	}
	if _, err := GraphCreateFilter(nil, nil, "x", ""); err == nil {
		t.Error("GraphCreateFilter(nil) should fail")
	}
	GraphFree(nil)
}

func TestBufferScaleSinkChain(t *testing.T) {
	skipIfNoAVFilter(t)

	graph := GraphAlloc()
	if graph == nil {
		t.Fatal("GraphAlloc returned nil")
	}
	defer GraphFree(&graph)

	srcArgs := fmt.Sprintf("video_size=64x48:pix_fmt=%d:time_base=1/25:pixel_aspect=1/1", avutil.PixelFormatRGB24)
	src, err := GraphCreateFilter(graph, GetByName("buffer"), "in", srcArgs)
	if err != nil {
		t.Fatalf("create buffer: %v", err)
	}
	scale, err := GraphCreateFilter(graph, GetByName("scale"), "scale", "32:24")
	if err != nil {
		t.Fatalf("create scale: %v", err)
	}
	sink, err := GraphCreateFilter(graph, GetByName("buffersink"), "out", "")
	if err != nil {
		t.Fatalf("create buffersink: %v", err)
	}
	if err := Link(src, 0, scale, 0); err != nil {
		t.Fatalf("link src->scale: %v", err)
	}
	if err := Link(scale, 0, sink, 0); err != nil {
		t.Fatalf("link scale->sink: %v", err)
	}
	if err := GraphConfig(graph); err != nil {
		t.Fatalf("GraphConfig: %v", err)
	}

	in := avutil.FrameAlloc()
	defer avutil.FrameFree(&in)
	avutil.SetFrameWidth(in, 64)
	avutil.SetFrameHeight(in, 48)
	avutil.SetFrameFormat(in, int32(avutil.PixelFormatRGB24))
	if err := avutil.FrameGetBuffer(in, 32); err != nil {
		t.Fatalf("FrameGetBuffer: %v", err)
	}
	avutil.SetFramePTS(in, 0)

	if err := BufferSrcAddFrameFlags(src, in, BufferSrcFlagKeepRef); err != nil {
		t.Fatalf("BufferSrcAddFrameFlags: %v", err)
	}

	out := avutil.FrameAlloc()
	defer avutil.FrameFree(&out)
	if err := BufferSinkGetFrame(sink, out); err != nil {
		t.Fatalf("BufferSinkGetFrame: %v", err)
	}
	if avutil.GetFrameWidth(out) != 32 || avutil.GetFrameHeight(out) != 24 {
		t.Errorf("output %dx%d, want 32x24", avutil.GetFrameWidth(out), avutil.GetFrameHeight(out))
	}
}
