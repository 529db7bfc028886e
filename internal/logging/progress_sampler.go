package logging

// ProgressSampler decides which transfer progress observations are worth a
// log line: the first one of each stage and every crossing into a new
// percentage bucket. It is not safe for concurrent use.
type ProgressSampler struct {
	step   float64
	stage  string
	bucket int
}

// NewProgressSampler returns a sampler with buckets of step percent.
// Non-positive steps fall back to 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, bucket: -1}
}

// ShouldLog reports whether percent at stage should be logged. A negative
// percent means the total is unknown and only stage changes are logged.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage != "" && stage != s.stage {
		s.stage, s.bucket = stage, -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	bucket := int(min(percent, 100) / s.step)
	if bucket > s.bucket {
		s.bucket = bucket
		emit = true
	}
	return emit
}
