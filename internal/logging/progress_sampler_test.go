package logging

import "testing"

func TestProgressSamplerDefaults(t *testing.T) {
	for _, step := range []float64{0, -3} {
		if got := NewProgressSampler(step).step; got != 5 {
			t.Errorf("NewProgressSampler(%v).step = %v, want 5", step, got)
		}
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(42, "downloading") {
		t.Error("nil sampler should always log")
	}
}

func TestProgressSamplerSequence(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		stage   string
		want    bool
	}{
		{0, "downloading", true},
		{3, "downloading", false},
		{9.99, "downloading", false},
		{10, "downloading", true},
		{15, "downloading", false},
		{55, "downloading", true},
		{40, "downloading", false},
		{100, "downloading", true},
		{130, "downloading", false},
		{0, "uploading", true},
		{5, "uploading", false},
		{-1, "uploading", false},
		{-1, "downloading", true},
		{20, "", true},
		{25, "", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.stage); got != step.want {
			t.Fatalf("step %d ShouldLog(%v, %q) = %v, want %v", i, step.percent, step.stage, got, step.want)
		}
	}
}

func TestProgressSamplerLogsEveryBucketAtFineSteps(t *testing.T) {
	s := NewProgressSampler(1)
	logged := 0
	for p := 0.0; p <= 100; p += 0.5 {
		if s.ShouldLog(p, "uploading") {
			logged++
		}
	}
	if logged != 101 {
		t.Fatalf("logged %d times, want 101", logged)
	}
}
