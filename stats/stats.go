// Package stats keeps streaming summaries of self-play results.
package stats

import (
	"fmt"
	"math"
)

// Running is a streaming mean and variance, using Welford's algorithm.
type Running struct {
	n        int
	mean, m2 float64
	min, max float64
	last     float64
}

func (r *Running) Push(v float64) {
	r.n++
	r.last = v
	if r.n == 1 {
		r.mean, r.m2 = v, 0
		r.min, r.max = v, v
		return
	}
	d := v - r.mean
	r.mean += d / float64(r.n)
	r.m2 += d * (v - r.mean)
	r.min = min(r.min, v)
	r.max = max(r.max, v)
}

func (r *Running) Count() int {
	return r.n
}

func (r *Running) Mean() float64 {
	return r.mean
}

// Variance is the sample variance; it is 0 until two values were pushed.
func (r *Running) Variance() float64 {
	if r.n < 2 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

func (r *Running) StandardError() float64 {
	if r.n == 0 {
		return 0
	}
	return math.Sqrt(r.Variance() / float64(r.n))
}

func (r *Running) Min() float64 {
	return r.min
}

func (r *Running) Max() float64 {
	return r.max
}

func (r *Running) Last() float64 {
	return r.last
}

// ConfidenceInterval returns the bounds of the mean at the given confidence,
// in percent.
func (r *Running) ConfidenceInterval(confidence float64) (float64, float64) {
	h := ZVal(confidence) * r.StandardError()
	return r.mean - h, r.mean + h
}

func (r *Running) String() string {
	lo, hi := r.ConfidenceInterval(95)
	return fmt.Sprintf("n=%d mean=%.2f [%.2f, %.2f] min=%g max=%g", r.n, r.mean, lo, hi, r.min, r.max)
}
