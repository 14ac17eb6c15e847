//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func newFakeRegistry(lookups *atomic.Int32) *CodecRegistry {
	r := NewCodecRegistry()
	find := func(id CodecID) (*Codec, error) {
		lookups.Add(1)
		if id == CodecIDNone {
			return nil, ErrCodecNotFound
		}
		return &Codec{}, nil
	}
	r.findDecoder = find
	r.findEncoder = find
	return r
}

func TestCodecRegistryCachesLookups(t *testing.T) {
	var lookups atomic.Int32
	r := newFakeRegistry(&lookups)

	first, err := r.Decoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("Decoder: %v", err)
	}
	second, err := r.Decoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("Decoder: %v", err)
	}
	if first != second {
		t.Error("second lookup returned a different codec")
	}
	if n := lookups.Load(); n != 1 {
		t.Errorf("native lookups = %d, want 1", n)
	}

	if _, err := r.Encoder(CodecIDPNG); err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	if n := lookups.Load(); n != 2 {
		t.Errorf("encoder and decoder caches should be separate, lookups = %d", n)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestCodecRegistryDoesNotCacheMisses(t *testing.T) {
	var lookups atomic.Int32
	r := newFakeRegistry(&lookups)

	for range 2 {
		if _, err := r.Decoder(CodecIDNone); !errors.Is(err, ErrCodecNotFound) {
			t.Fatalf("Decoder(None) = %v, want ErrCodecNotFound", err)
		}
	}
	if n := lookups.Load(); n != 2 {
		t.Errorf("lookups = %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestCodecRegistryConcurrent(t *testing.T) {
	var lookups atomic.Int32
	r := newFakeRegistry(&lookups)

	ids := []CodecID{CodecIDPNG, CodecIDBMP, CodecIDMJPEG, CodecIDTIFF}
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Decoder(ids[i%len(ids)]); err != nil {
				t.Errorf("Decoder: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := lookups.Load(); n != int32(len(ids)) {
		t.Errorf("lookups = %d, want %d", n, len(ids))
	}
	r.Close()
	if r.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", r.Len())
	}
}

func TestFindCodecs(t *testing.T) {
	skipIfNoFFmpeg(t)

	dec, err := FindDecoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("FindDecoder(PNG): %v", err)
	}
	if dec.Name() != "png" || dec.ID() != CodecIDPNG || dec.IsEncoder() {
		t.Errorf("decoder = %s id %d encoder=%v", dec.Name(), dec.ID(), dec.IsEncoder())
	}
	if dec.MediaType() != MediaTypeVideo {
		t.Errorf("MediaType() = %v, want video", dec.MediaType())
	}

	enc, err := FindEncoderByName("png")
	if err != nil {
		t.Fatalf("FindEncoderByName(png): %v", err)
	}
	if !enc.IsEncoder() {
		t.Error("png encoder reports IsEncoder() = false")
	}

	if _, err := FindDecoderByName("no-such-codec"); !errors.Is(err, ErrCodecNotFound) {
		t.Errorf("FindDecoderByName(unknown) = %v, want ErrCodecNotFound", err)
	}
}

func TestDefaultCodecRegistryShared(t *testing.T) {
	skipIfNoFFmpeg(t)

	a, err := DefaultCodecRegistry().Encoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	b, err := DefaultCodecRegistry().Encoder(CodecIDPNG)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	if a != b {
		t.Error("default registry returned distinct codec wrappers")
	}
}
