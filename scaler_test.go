//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"testing"
)

func TestScalerConvert(t *testing.T) {
	skipIfNoFFmpeg(t)

	s, err := NewScaler(ScalerConfig{
		SrcWidth: 64, SrcHeight: 48, SrcFormat: PixelFormatRGB24,
		DstWidth: 32, DstHeight: 24, DstFormat: PixelFormatYUV420P,
	})
	if err != nil {
		t.Fatalf("NewScaler: %v", err)
	}
	defer s.Close()
	if s.Config().Flags != ScaleBilinear {
		t.Errorf("default flags = %d, want bilinear", s.Config().Flags)
	}

	src, err := NewVideoFrame(64, 48, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	defer src.Close()
	dst, err := s.NewDestinationFrame()
	if err != nil {
		t.Fatalf("NewDestinationFrame: %v", err)
	}
	defer dst.Close()

	rows, err := s.ScaleImage(src, dst)
	if err != nil {
		t.Fatalf("ScaleImage: %v", err)
	}
	if rows != 24 {
		t.Errorf("ScaleImage wrote %d rows, want 24", rows)
	}
	if !s.Matches(64, 48, PixelFormatRGB24, 32, 24, PixelFormatYUV420P) {
		t.Error("Matches() = false for the configured geometry")
	}
	if s.Matches(64, 48, PixelFormatRGB24, 32, 24, PixelFormatRGB24) {
		t.Error("Matches() = true for another destination format")
	}

	if _, err := s.ScaleImage(dst, src); err == nil {
		t.Error("ScaleImage accepted frames of the wrong geometry")
	}
}

func TestScalerValidation(t *testing.T) {
	skipIfNoFFmpeg(t)

	if _, err := NewScaler(ScalerConfig{SrcWidth: 0, SrcHeight: 10, DstWidth: 10, DstHeight: 10}); err == nil {
		t.Error("NewScaler accepted a zero source width")
	}
	_, err := NewScaler(ScalerConfig{
		SrcWidth: 8, SrcHeight: 8, SrcFormat: PixelFormatNone,
		DstWidth: 8, DstHeight: 8, DstFormat: PixelFormatRGB24,
	})
	if !errors.Is(err, ErrUnsupportedPixelFormat) {
		t.Errorf("NewScaler(none) = %v, want ErrUnsupportedPixelFormat", err)
	}
}

func TestScalerFromCodecContext(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, err := newTestEncoder(t, CodecIDPNG, 40, 30, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewEncoderContext: %v", err)
	}
	defer ctx.Close()

	s, err := NewScalerFromCodecContext(ctx, WithDstSize(20, 15), WithDstFormat(PixelFormatGray8), WithFlags(ScaleArea))
	if err != nil {
		t.Fatalf("NewScalerFromCodecContext: %v", err)
	}
	defer s.Close()
	cfg := s.Config()
	if cfg.SrcWidth != 40 || cfg.SrcHeight != 30 || cfg.SrcFormat != PixelFormatRGB24 {
		t.Errorf("source = %dx%d %v", cfg.SrcWidth, cfg.SrcHeight, cfg.SrcFormat)
	}
	if cfg.DstWidth != 20 || cfg.DstHeight != 15 || cfg.DstFormat != PixelFormatGray8 || cfg.Flags != ScaleArea {
		t.Errorf("destination = %dx%d %v flags %d", cfg.DstWidth, cfg.DstHeight, cfg.DstFormat, cfg.Flags)
	}

	s.Close()
	if s.Matches(40, 30, PixelFormatRGB24, 20, 15, PixelFormatGray8) {
		t.Error("closed scaler still matches")
	}
}
