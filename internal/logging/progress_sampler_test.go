package logging

import "testing"

func TestNewProgressSamplerBucketSize(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"zero falls back", 0, 5},
		{"negative falls back", -3, 5},
		{"custom", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "render") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(5)
	steps := []struct {
		percent float64
		phase   string
		want    bool
	}{
		{0, "render", true},
		{2, "render", false},
		{5, "render", true},
		{9.9, "render", false},
		{12, "render", true},
		{12, "stitch", true},
		{13, "stitch", false},
		{-1, "upload", true},
		{-1, "upload", false},
		{150, "upload", true},
		{100, "upload", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.phase); got != step.want {
			t.Fatalf("step %d: ShouldLog(%v, %q) = %v, want %v", i, step.percent, step.phase, got, step.want)
		}
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "render")
	s.Reset()
	if !s.ShouldLog(50, "render") {
		t.Fatal("expected log after reset")
	}
}
