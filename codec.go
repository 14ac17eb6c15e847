//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"fmt"
	"sync"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
)

// Codec is a borrowed entry of FFmpeg's static codec registry. It is never
// freed.
type Codec struct {
	ptr avcodec.Codec
}

func wrapCodec(ptr avcodec.Codec) *Codec {
	if ptr == nil {
		return nil
	}
	return &Codec{ptr: ptr}
}

// FindDecoder returns the default decoder for id.
func FindDecoder(id CodecID) (*Codec, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if c := wrapCodec(avcodec.FindDecoder(id)); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: decoder for %s (id %d)", ErrCodecNotFound, id, int32(id))
}

// FindEncoder returns the default encoder for id.
func FindEncoder(id CodecID) (*Codec, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if c := wrapCodec(avcodec.FindEncoder(id)); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: encoder for %s (id %d)", ErrCodecNotFound, id, int32(id))
}

// FindDecoderByName returns the decoder registered under name.
func FindDecoderByName(name string) (*Codec, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if c := wrapCodec(avcodec.FindDecoderByName(name)); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: decoder %q", ErrCodecNotFound, name)
}

// FindEncoderByName returns the encoder registered under name, e.g. "libx264".
func FindEncoderByName(name string) (*Codec, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if c := wrapCodec(avcodec.FindEncoderByName(name)); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: encoder %q", ErrCodecNotFound, name)
}

// Name returns the codec's short name.
func (c *Codec) Name() string {
	return avcodec.GetCodecName(c.ptr)
}

// ID returns the codec id.
func (c *Codec) ID() CodecID {
	return avcodec.GetCodecID(c.ptr)
}

// MediaType returns the kind of media the codec handles.
func (c *Codec) MediaType() MediaType {
	return avcodec.GetCodecType(c.ptr)
}

// IsEncoder reports whether the codec encodes.
func (c *Codec) IsEncoder() bool {
	return avcodec.IsEncoder(c.ptr)
}

// CodecRegistry caches codec lookups by id. Lookups take a read lock; a miss
// takes the write lock to insert. One registry is typically shared by every
// Image of a process via WithCodecRegistry.
type CodecRegistry struct {
	mu       sync.RWMutex
	decoders map[CodecID]*Codec
	encoders map[CodecID]*Codec

	findDecoder func(CodecID) (*Codec, error)
	findEncoder func(CodecID) (*Codec, error)
}

// NewCodecRegistry creates an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{
		decoders:    make(map[CodecID]*Codec),
		encoders:    make(map[CodecID]*Codec),
		findDecoder: FindDecoder,
		findEncoder: FindEncoder,
	}
}

// Decoder returns the cached decoder for id, looking it up on first use.
func (r *CodecRegistry) Decoder(id CodecID) (*Codec, error) {
	return r.lookup(r.decoders, id, r.findDecoder)
}

// Encoder returns the cached encoder for id, looking it up on first use.
func (r *CodecRegistry) Encoder(id CodecID) (*Codec, error) {
	return r.lookup(r.encoders, id, r.findEncoder)
}

func (r *CodecRegistry) lookup(cache map[CodecID]*Codec, id CodecID, find func(CodecID) (*Codec, error)) (*Codec, error) {
	r.mu.RLock()
	c, ok := cache[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := cache[id]; ok {
		return c, nil
	}
	c, err := find(id)
	if err != nil {
		return nil, err
	}
	cache[id] = c
	return c, nil
}

// Len returns the number of cached codecs.
func (r *CodecRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decoders) + len(r.encoders)
}

// Close drops the cached entries. Registry codecs are static, so nothing is
// freed.
func (r *CodecRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.decoders)
	clear(r.encoders)
	return nil
}
