//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/ffmedia/avfilter"
)

// Names of the endpoints of a linear chain.
const (
	bufferSourceFilter = "buffer"
	bufferSinkFilter   = "buffersink"
)

// FilterGraph is an owned AVFilterGraph holding a linear chain of filter
// stages. Stage i's first output is linked to stage i+1's first input.
type FilterGraph struct {
	h       handle
	filters []*FilterContext

	// linkedUpTo is the number of stages already wired into the chain.
	linkedUpTo  int
	linked      bool
	configCalls int
}

// FilterContext is one stage of a FilterGraph. It is freed with the graph.
type FilterContext struct {
	ptr   avfilter.Context
	graph *FilterGraph
	name  string
	args  string
}

// Name returns the filter's registered name.
func (fc *FilterContext) Name() string {
	return fc.name
}

// Args returns the arguments the stage was created with.
func (fc *FilterContext) Args() string {
	return fc.args
}

// Graph returns the graph owning the stage.
func (fc *FilterContext) Graph() *FilterGraph {
	return fc.graph
}

// NewFilterGraph allocates an empty graph.
func NewFilterGraph() (*FilterGraph, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if err := avfilter.Init(); err != nil {
		return nil, err
	}
	h, err := newHandle(avfilter.GraphAlloc(), "filter graph", avfilter.GraphFree)
	if err != nil {
		return nil, err
	}
	g := &FilterGraph{h: h}
	runtime.SetFinalizer(g, (*FilterGraph).Close)
	return g, nil
}

// AddContext appends a stage running the named filter with args, e.g.
// ("scale", "640:-2"). The graph must be linked again afterwards.
func (g *FilterGraph) AddContext(name, args string) (*FilterContext, error) {
	if err := g.h.check(); err != nil {
		return nil, err
	}
	filter := avfilter.GetByName(name)
	if filter == nil {
		return nil, fmt.Errorf("%w: %q", ErrFilterNotFound, name)
	}
	instance := fmt.Sprintf("%s_%d", name, len(g.filters))
	ctx, err := avfilter.GraphCreateFilter(g.h.raw(), filter, instance, args)
	if err != nil {
		return nil, fmt.Errorf("ffmedia: create filter %s=%s: %w", name, args, err)
	}
	fc := &FilterContext{ptr: ctx, graph: g, name: name, args: args}
	g.filters = append(g.filters, fc)
	g.linked = false
	return fc, nil
}

// Filters returns the stages in chain order.
func (g *FilterGraph) Filters() []*FilterContext {
	return append([]*FilterContext(nil), g.filters...)
}

// Linked reports whether every stage is wired and the graph configured.
func (g *FilterGraph) Linked() bool {
	return g.linked
}

// Link wires adjacent stages and configures the graph. It is a no-op when
// nothing was added since the last successful Link.
func (g *FilterGraph) Link() error {
	if err := g.h.check(); err != nil {
		return err
	}
	if g.linked {
		return nil
	}
	if len(g.filters) == 0 {
		return errors.New("ffmedia: filter graph has no stages")
	}
	for i := max(g.linkedUpTo, 1); i < len(g.filters); i++ {
		src, dst := g.filters[i-1], g.filters[i]
		if err := avfilter.Link(src.ptr, 0, dst.ptr, 0); err != nil {
			return fmt.Errorf("ffmedia: link %s -> %s: %w", src.name, dst.name, err)
		}
		g.linkedUpTo = i + 1
	}
	g.configCalls++
	if err := avfilter.GraphConfig(g.h.raw()); err != nil {
		return fmt.Errorf("ffmedia: configure filter graph: %w", err)
	}
	g.linked = true
	return nil
}

// ApplyImage runs one frame through the chain and returns the filtered frame,
// owned by the caller. The first stage must be a buffer source and the last
// a buffer sink, with geometry matching frame.
func (g *FilterGraph) ApplyImage(frame *Frame) (*Frame, error) {
	if err := g.Link(); err != nil {
		return nil, err
	}
	if err := frame.h.check(); err != nil {
		return nil, err
	}
	first, last := g.filters[0], g.filters[len(g.filters)-1]
	if first.name != bufferSourceFilter || last.name != bufferSinkFilter {
		return nil, fmt.Errorf("ffmedia: filter chain must run %s -> ... -> %s, got %s -> %s",
			bufferSourceFilter, bufferSinkFilter, first.name, last.name)
	}

	if err := avfilter.BufferSrcAddFrameFlags(first.ptr, frame.raw(), avfilter.BufferSrcFlagKeepRef); err != nil {
		return nil, fmt.Errorf("ffmedia: push frame to filter graph: %w", err)
	}
	runtime.KeepAlive(frame)

	out, err := NewFrame()
	if err != nil {
		return nil, err
	}
	if err := avfilter.BufferSinkGetFrame(last.ptr, out.raw()); err != nil {
		out.Close()
		return nil, fmt.Errorf("ffmedia: pull frame from filter graph: %w", err)
	}
	return out, nil
}

// Close frees the graph and every stage.
func (g *FilterGraph) Close() error {
	g.h.close()
	for _, fc := range g.filters {
		fc.ptr = nil
	}
	g.filters = nil
	return nil
}

// FilterStage names one filter of a chain and its arguments.
type FilterStage struct {
	Name string
	Args string
}

// String formats the stage in filtergraph syntax.
func (s FilterStage) String() string {
	if s.Args == "" {
		return s.Name
	}
	return s.Name + "=" + s.Args
}

// ParseFilterChain parses a linear chain in filtergraph syntax, e.g.
// "scale=640:-2,format=gray". Commas inside quotes or brackets, or escaped
// as "\\,", do not split stages.
func ParseFilterChain(chain string) ([]FilterStage, error) {
	var stages []FilterStage
	for _, part := range splitFilterChain(chain) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, args, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("ffmedia: filter stage %q has no name", part)
		}
		if strings.ContainsAny(name, "[];") {
			return nil, fmt.Errorf("ffmedia: filter stage %q: only linear chains are supported", part)
		}
		stages = append(stages, FilterStage{Name: name, Args: args})
	}
	if len(stages) == 0 {
		return nil, errors.New("ffmedia: empty filter chain")
	}
	return stages, nil
}

// splitFilterChain splits by comma but respects brackets, quotes and
// backslash escapes. Quoted text is literal; a backslash outside quotes keeps
// the next rune from splitting. Runes are copied unchanged.
func splitFilterChain(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0
	inQuote := false
	escaped := false

	for _, c := range s {
		current.WriteRune(c)
		if escaped {
			escaped = false
			continue
		}
		if inQuote {
			if c == '\'' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '\'':
			inQuote = true
		case '[', '(':
			depth++
		case ']', ')':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				part := current.String()
				result = append(result, part[:len(part)-1])
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// FilterPipeline is a reusable linear chain of stages. For each input
// geometry it builds a graph buffer -> stages -> buffersink and keeps it
// until a frame of another geometry arrives. Safe for concurrent use; calls
// are serialized.
type FilterPipeline struct {
	mu     sync.Mutex
	stages []FilterStage
	built  bool

	graph *FilterGraph
	key   pipelineKey
}

type pipelineKey struct {
	width, height int
	format        PixelFormat
}

// NewFilterPipeline creates a pipeline running stages in order.
func NewFilterPipeline(stages ...FilterStage) *FilterPipeline {
	return &FilterPipeline{stages: append([]FilterStage(nil), stages...)}
}

// NewFilterPipelineFromString parses chain with ParseFilterChain and creates
// a pipeline for it.
func NewFilterPipelineFromString(chain string) (*FilterPipeline, error) {
	stages, err := ParseFilterChain(chain)
	if err != nil {
		return nil, err
	}
	return NewFilterPipeline(stages...), nil
}

// Stages returns the pipeline's stages.
func (p *FilterPipeline) Stages() []FilterStage {
	return append([]FilterStage(nil), p.stages...)
}

// Build checks that every stage names a registered filter. ApplyImage calls
// it on first use.
func (p *FilterPipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.build()
}

func (p *FilterPipeline) build() error {
	if p.built {
		return nil
	}
	if err := Init(); err != nil {
		return err
	}
	if err := avfilter.Init(); err != nil {
		return err
	}
	if len(p.stages) == 0 {
		return errors.New("ffmedia: empty filter chain")
	}
	for _, s := range p.stages {
		if avfilter.GetByName(s.Name) == nil {
			return fmt.Errorf("%w: %q", ErrFilterNotFound, s.Name)
		}
	}
	p.built = true
	return nil
}

// ApplyImage filters one frame and returns the result, owned by the caller.
func (p *FilterPipeline) ApplyImage(frame *Frame) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.build(); err != nil {
		return nil, err
	}
	if err := frame.h.check(); err != nil {
		return nil, err
	}
	key := pipelineKey{frame.Width(), frame.Height(), frame.PixelFormat()}
	if p.graph == nil || p.key != key {
		if err := p.rebuild(key); err != nil {
			return nil, err
		}
	}
	return p.graph.ApplyImage(frame)
}

// rebuild replaces the graph with one accepting frames of key's geometry.
func (p *FilterPipeline) rebuild(key pipelineKey) error {
	if p.graph != nil {
		p.graph.Close()
		p.graph = nil
	}
	g, err := NewFilterGraph()
	if err != nil {
		return err
	}
	srcArgs := fmt.Sprintf("video_size=%dx%d:pix_fmt=%d:time_base=1/25:pixel_aspect=1/1",
		key.width, key.height, int(key.format))
	if _, err := g.AddContext(bufferSourceFilter, srcArgs); err != nil {
		g.Close()
		return err
	}
	for _, s := range p.stages {
		if _, err := g.AddContext(s.Name, s.Args); err != nil {
			g.Close()
			return err
		}
	}
	if _, err := g.AddContext(bufferSinkFilter, ""); err != nil {
		g.Close()
		return err
	}
	if err := g.Link(); err != nil {
		g.Close()
		return err
	}
	Logger().Debug("filter graph built",
		zap.Stringers("stages", p.stages),
		zap.Int("width", key.width),
		zap.Int("height", key.height),
		zap.Stringer("format", key.format))
	p.graph, p.key = g, key
	return nil
}

// Close frees the current graph. The pipeline can be used again afterwards.
func (p *FilterPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.graph != nil {
		p.graph.Close()
		p.graph = nil
	}
	return nil
}
