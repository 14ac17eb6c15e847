//go:build !ios && !android && (amd64 || arm64)

// Package avfilter provides video filtering using FFmpeg's libavfilter.
// The library is loaded on first use.
package avfilter

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// Opaque types
type (
	// Graph represents an AVFilterGraph
	Graph = unsafe.Pointer
	// Context represents an AVFilterContext
	Context = unsafe.Pointer
	// Filter represents an AVFilter
	Filter = unsafe.Pointer
)

var errNilArgument = errors.New("avfilter: nil argument")

var (
	libAVFilter uintptr
	initOnce    sync.Once
	initErr     error
)

// Function bindings
var (
	avfilterGraphAlloc        func() unsafe.Pointer
	avfilterGraphFree         func(graph *unsafe.Pointer)
	avfilterGraphConfig       func(graph, logCtx unsafe.Pointer) int32
	avfilterGraphCreateFilter func(filtCtx *unsafe.Pointer, filt unsafe.Pointer, name, args *byte, opaque, graph unsafe.Pointer) int32
	avfilterGetByName         func(name string) unsafe.Pointer
	avfilterLink              func(src unsafe.Pointer, srcPad uint32, dst unsafe.Pointer, dstPad uint32) int32
	avfilterVersion           func() uint32

	avBuffersrcAddFrameFlags func(ctx, frame unsafe.Pointer, flags int32) int32
	avBuffersinkGetFrame     func(ctx, frame unsafe.Pointer) int32
)

// Buffer source flags
const (
	BufferSrcFlagNoCheckFormat = 1 // AV_BUFFERSRC_FLAG_NO_CHECK_FORMAT
	BufferSrcFlagPush          = 4 // AV_BUFFERSRC_FLAG_PUSH
	BufferSrcFlagKeepRef       = 8 // AV_BUFFERSRC_FLAG_KEEP_REF
)

// Init loads libavfilter and binds its functions. Safe to call repeatedly.
func Init() error {
	initOnce.Do(func() {
		initErr = initLibrary()
	})
	return initErr
}

func initLibrary() error {
	var err error
	// libavfilter 10.x (FFmpeg 7), 9.x (FFmpeg 6), 8.x (FFmpeg 5)
	libAVFilter, err = bindings.LoadLibrary("avfilter", []int{10, 9, 8})
	if err != nil {
		return fmt.Errorf("avfilter: failed to load library: %w", err)
	}

	purego.RegisterLibFunc(&avfilterGraphAlloc, libAVFilter, "avfilter_graph_alloc")
	purego.RegisterLibFunc(&avfilterGraphFree, libAVFilter, "avfilter_graph_free")
	purego.RegisterLibFunc(&avfilterGraphConfig, libAVFilter, "avfilter_graph_config")
	purego.RegisterLibFunc(&avfilterGraphCreateFilter, libAVFilter, "avfilter_graph_create_filter")
	purego.RegisterLibFunc(&avfilterGetByName, libAVFilter, "avfilter_get_by_name")
	purego.RegisterLibFunc(&avfilterLink, libAVFilter, "avfilter_link")
	purego.RegisterLibFunc(&avfilterVersion, libAVFilter, "avfilter_version")

	purego.RegisterLibFunc(&avBuffersrcAddFrameFlags, libAVFilter, "av_buffersrc_add_frame_flags")
	purego.RegisterLibFunc(&avBuffersinkGetFrame, libAVFilter, "av_buffersink_get_frame")

	return nil
}

// Version returns the libavfilter version, or 0 if it cannot be loaded.
func Version() uint32 {
	if err := Init(); err != nil {
		return 0
	}
	return avfilterVersion()
}

// GraphAlloc allocates a new filter graph.
func GraphAlloc() Graph {
	if err := Init(); err != nil {
		return nil
	}
	return avfilterGraphAlloc()
}

// GraphFree frees a filter graph and every filter in it, and sets *graph to nil.
func GraphFree(graph *Graph) {
	if graph == nil || *graph == nil {
		return
	}
	if err := Init(); err != nil {
		return
	}
	avfilterGraphFree(graph)
	*graph = nil
}

// GraphConfig checks validity and configures all links and formats in the graph.
func GraphConfig(graph Graph) error {
	if graph == nil {
		return errNilArgument
	}
	if err := Init(); err != nil {
		return err
	}
	return avutil.NewError(avfilterGraphConfig(graph, nil), "avfilter_graph_config")
}

// cString converts a Go string to a NUL-terminated C string; "" maps to NULL.
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := append([]byte(s), 0)
	return &b[0]
}

// GraphCreateFilter instantiates filter inside graph with the given
// instance name and option string.
func GraphCreateFilter(graph Graph, filter Filter, name, args string) (Context, error) {
	if graph == nil || filter == nil {
		return nil, errNilArgument
	}
	if err := Init(); err != nil {
		return nil, err
	}

	var ctx Context
	ret := avfilterGraphCreateFilter(&ctx, filter, cString(name), cString(args), nil, graph)
	if err := avutil.NewError(ret, "avfilter_graph_create_filter"); err != nil {
		return nil, err
	}
	return ctx, nil
}

// GetByName finds a registered filter by name (e.g. "buffer", "scale").
func GetByName(name string) Filter {
	if err := Init(); err != nil || name == "" {
		return nil
	}
	return avfilterGetByName(name)
}

// Link connects output pad srcPad of src to input pad dstPad of dst.
func Link(src Context, srcPad uint32, dst Context, dstPad uint32) error {
	if src == nil || dst == nil {
		return errNilArgument
	}
	if err := Init(); err != nil {
		return err
	}
	return avutil.NewError(avfilterLink(src, srcPad, dst, dstPad), "avfilter_link")
}

// BufferSrcAddFrameFlags pushes a frame into a buffer source filter.
func BufferSrcAddFrameFlags(ctx Context, frame avutil.Frame, flags int32) error {
	if ctx == nil {
		return errNilArgument
	}
	if err := Init(); err != nil {
		return err
	}
	return avutil.NewError(avBuffersrcAddFrameFlags(ctx, frame, flags), "av_buffersrc_add_frame_flags")
}

// BufferSinkGetFrame pulls a filtered frame out of a buffer sink filter.
// AVERROR(EAGAIN) means more input is needed.
func BufferSinkGetFrame(ctx Context, frame avutil.Frame) error {
	if ctx == nil {
		return errNilArgument
	}
	if err := Init(); err != nil {
		return err
	}
	return avutil.NewError(avBuffersinkGetFrame(ctx, frame), "av_buffersink_get_frame")
}
