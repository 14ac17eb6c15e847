//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffmedia/avcodec"
	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// Packet is an owned AVPacket holding one unit of compressed data.
type Packet struct {
	h handle
}

// NewPacket allocates an empty packet.
func NewPacket() (*Packet, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	h, err := newHandle(avcodec.PacketAlloc(), "packet", avcodec.PacketFree)
	if err != nil {
		return nil, err
	}
	p := &Packet{h: h}
	runtime.SetFinalizer(p, (*Packet).Close)
	return p, nil
}

// NewPacketFromBytes creates a packet holding a copy of data. The copy lives
// in a padded MemorySegment whose ownership moves to the packet.
func NewPacketFromBytes(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return NewPacket()
	}
	seg, err := NewMemorySegment(len(data) + avutil.InputBufferPadding)
	if err != nil {
		return nil, err
	}
	seg.CopyFrom(data)

	pkt, err := NewPacket()
	if err != nil {
		seg.Close()
		return nil, err
	}
	if err := avcodec.PacketFromData(pkt.h.raw(), seg.h.raw(), int32(len(data))); err != nil {
		seg.Close()
		pkt.Close()
		return nil, err
	}
	seg.Release()
	return pkt, nil
}

func (p *Packet) raw() avcodec.Packet {
	return p.h.raw()
}

// Size returns the payload size in bytes.
func (p *Packet) Size() int {
	return int(avcodec.GetPacketSize(p.raw()))
}

// StreamIndex returns the index of the stream the packet belongs to.
func (p *Packet) StreamIndex() int {
	return int(avcodec.GetPacketStreamIndex(p.raw()))
}

// SetStreamIndex sets the stream index.
func (p *Packet) SetStreamIndex(idx int) {
	avcodec.SetPacketStreamIndex(p.raw(), int32(idx))
}

// PTS returns the presentation timestamp in stream time base units.
func (p *Packet) PTS() int64 {
	return avcodec.GetPacketPTS(p.raw())
}

// DTS returns the decompression timestamp in stream time base units.
func (p *Packet) DTS() int64 {
	return avcodec.GetPacketDTS(p.raw())
}

// Duration returns the packet duration in stream time base units.
func (p *Packet) Duration() int64 {
	return avcodec.GetPacketDuration(p.raw())
}

// IsKeyFrame reports whether the packet holds a keyframe.
func (p *Packet) IsKeyFrame() bool {
	return avcodec.GetPacketFlags(p.raw())&avcodec.PacketFlagKey != 0
}

// Data returns the payload without copying. The slice is borrowed: it is
// invalid after Release, Close, or the packet's next reuse.
func (p *Packet) Data() []byte {
	if p.h.closed() {
		return nil
	}
	data := avcodec.GetPacketData(p.raw())
	size := p.Size()
	if data == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), size)
}

// Bytes returns a copy of the payload.
func (p *Packet) Bytes() []byte {
	data := p.Data()
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Ref returns a new packet referencing the same payload.
func (p *Packet) Ref() (*Packet, error) {
	if err := p.h.check(); err != nil {
		return nil, err
	}
	dst, err := NewPacket()
	if err != nil {
		return nil, err
	}
	if err := avcodec.PacketRef(dst.raw(), p.raw()); err != nil {
		dst.Close()
		return nil, err
	}
	return dst, nil
}

// Release drops the payload reference so the packet can be reused.
func (p *Packet) Release() {
	if p.h.closed() {
		return
	}
	avcodec.PacketUnref(p.raw())
}

// Save writes the raw payload to path with no container framing.
func (p *Packet) Save(path string) error {
	if err := p.h.check(); err != nil {
		return err
	}
	if err := os.WriteFile(path, p.Data(), 0o644); err != nil {
		return fmt.Errorf("ffmedia: save packet: %w", err)
	}
	return nil
}

// Close frees the packet and its payload reference.
func (p *Packet) Close() error {
	p.h.close()
	return nil
}
