package strip

import (
	"context"
	"image/color"
	"time"
)

// Run is a span of LEDs lit one by one in the same color.
type Run struct {
	From, To int
	Color    color.RGBA
}

var (
	marqueeRed   = color.RGBA{R: 230, G: 20, B: 20, A: 0xFF}
	marqueeGreen = color.RGBA{R: 20, G: 230, B: 20, A: 0xFF}
	marqueeBlue  = color.RGBA{R: 20, G: 20, B: 230, A: 0xFF}
)

// MarqueePattern splits ledCount LEDs in three segments and sweeps red, green
// and blue across them, then the same colors shifted by one segment.
func MarqueePattern(ledCount int) []Run {
	a, b := ledCount/3, 2*ledCount/3
	return []Run{
		{From: 0, To: a, Color: marqueeRed},
		{From: a, To: b, Color: marqueeGreen},
		{From: b, To: ledCount, Color: marqueeBlue},
		{From: 0, To: a, Color: marqueeBlue},
		{From: a, To: b, Color: marqueeRed},
		{From: b, To: ledCount, Color: marqueeGreen},
	}
}

// Play writes every LED of the pattern in order, step apart. It stops early
// when ctx is done.
func (s *Strip) Play(ctx context.Context, pattern []Run, step time.Duration) error {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for _, run := range pattern {
		for i := run.From; i < run.To; i++ {
			if err := s.Write(ctx, i, run.Color); err != nil {
				return err
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Marquee plays the marquee pattern until ctx is done.
func (s *Strip) Marquee(ctx context.Context, step time.Duration) error {
	pattern := MarqueePattern(s.Len())
	for {
		if err := s.Play(ctx, pattern, step); err != nil {
			return err
		}
	}
}
