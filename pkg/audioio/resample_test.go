package audioio

import (
	"math"
	"testing"
)

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		from, to int
		want     int
	}{
		{"same rate", 5, 16000, 16000, 5},
		{"downsample 48k to 16k", 960, 48000, 16000, 320},
		{"upsample 16k to 24k", 320, 16000, 24000, 480},
		{"empty", 0, 44100, 16000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int16, tt.in)
			for i := range samples {
				samples[i] = int16(i)
			}
			if got := len(Resample(samples, tt.from, tt.to)); got != tt.want {
				t.Errorf("len = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResampleInterpolates(t *testing.T) {
	got := Resample([]int16{0, 100, 200, 300}, 16000, 32000)
	want := []int16{0, 50, 100, 150, 200, 250, 300, 300}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]int16{100, 300, -200, 200}, 2)
	if len(got) != 2 || got[0] != 200 || got[1] != 0 {
		t.Errorf("Downmix = %v", got)
	}

	mono := []int16{1, 2, 3}
	if got := Downmix(mono, 1); &got[0] != &mono[0] {
		t.Error("mono input should be returned unchanged")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	got := BytesToSamples(SamplesToBytes(samples))
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("got %v, want %v", got, samples)
		}
	}
}

func TestCalculateRMS(t *testing.T) {
	if got := CalculateRMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v", got)
	}
	if got := CalculateRMS(make([]int16, 100)); got != 0 {
		t.Errorf("RMS(silence) = %v", got)
	}

	square := make([]int16, 100)
	for i := range square {
		square[i] = 16384
		if i%2 == 1 {
			square[i] = -16384
		}
	}
	if got := CalculateRMS(square); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("RMS(square 0.5) = %v, want 0.5", got)
	}
}
