package mediatime_test

import (
	"math"
	"testing"
	"time"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
)

func TestReadable(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Duration
		expected string
	}{
		{"zero", 0, "00:00"},
		{"seconds only", 9 * time.Second, "00:09"},
		{"two minutes", 120 * time.Second, "02:00"},
		{"truncates fraction", 61*time.Second + 900*time.Millisecond, "01:01"},
		{"one hour", time.Hour, "1:00:00"},
		{"hours minutes seconds", 2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04"},
		{"negative", -5 * time.Second, "-00:05"},
		{"indefinite", mediatime.Indefinite, "∞"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mediatime.Readable(tt.in); got != tt.expected {
				t.Errorf("Readable(%v) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestSecondsRoundTrip(t *testing.T) {
	if got := mediatime.FromSeconds(1.5); got != 1500*time.Millisecond {
		t.Errorf("FromSeconds(1.5) = %v, want 1.5s", got)
	}
	if got := mediatime.FromSeconds(math.Inf(1)); !mediatime.IsIndefinite(got) {
		t.Errorf("FromSeconds(+Inf) = %v, want Indefinite", got)
	}
	if got := mediatime.FromSeconds(math.NaN()); got != 0 {
		t.Errorf("FromSeconds(NaN) = %v, want 0", got)
	}
	if got := mediatime.Seconds(mediatime.Indefinite); !math.IsInf(got, 1) {
		t.Errorf("Seconds(Indefinite) = %v, want +Inf", got)
	}
}

func TestFromSecondsSaturates(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want time.Duration
	}{
		{"huge", 1e10, mediatime.Indefinite},
		{"max float", math.MaxFloat64, mediatime.Indefinite},
		{"huge negative", -1e10, time.Duration(math.MinInt64)},
		{"negative infinity", math.Inf(-1), 0},
		{"in range", 3600, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mediatime.FromSeconds(tt.in); got != tt.want {
				t.Errorf("FromSeconds(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddSaturates(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Duration
		want time.Duration
	}{
		{"plain", time.Second, 2 * time.Second, 3 * time.Second},
		{"overflow", 10 * time.Second, math.MaxInt64, mediatime.Indefinite},
		{"underflow", -10 * time.Second, math.MinInt64, time.Duration(math.MinInt64)},
		{"negative step", 10 * time.Second, -4 * time.Second, 6 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mediatime.Add(tt.a, tt.b); got != tt.want {
				t.Errorf("Add(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := mediatime.Clamp(-time.Second, 0, 10*time.Second); got != 0 {
		t.Errorf("expected floor at 0, got %v", got)
	}
	if got := mediatime.Clamp(12*time.Second, 0, 10*time.Second); got != 10*time.Second {
		t.Errorf("expected ceiling at 10s, got %v", got)
	}
	if got := mediatime.Clamp(4*time.Second, 0, mediatime.Indefinite); got != 4*time.Second {
		t.Errorf("expected unchanged value under indefinite ceiling, got %v", got)
	}
}

func TestFractionFloorsWholeAtOneSecond(t *testing.T) {
	if got := mediatime.Fraction(30*time.Second, 120*time.Second); got != 0.25 {
		t.Errorf("Fraction = %v, want 0.25", got)
	}
	if got := mediatime.Fraction(2*time.Second, 0); got != 2 {
		t.Errorf("Fraction with zero whole = %v, want 2", got)
	}
}

func TestTimeRange(t *testing.T) {
	r := mediatime.NewTimeRange(10*time.Second, 25*time.Second)
	if r.Duration != 15*time.Second {
		t.Errorf("expected duration 15s, got %v", r.Duration)
	}
	if r.End() != 25*time.Second {
		t.Errorf("expected end 25s, got %v", r.End())
	}
	if !r.Contains(10*time.Second) || r.Contains(25*time.Second) {
		t.Error("expected half-open containment")
	}
	if got := r.String(); got != "00:10-00:25" {
		t.Errorf("String() = %q", got)
	}

	empty := mediatime.NewTimeRange(5*time.Second, time.Second)
	if empty.Duration != 0 || empty.Start != 5*time.Second {
		t.Errorf("expected empty range at start, got %+v", empty)
	}
}

func TestLast(t *testing.T) {
	if _, ok := mediatime.Last(nil); ok {
		t.Error("expected no last range for empty list")
	}

	ranges := []mediatime.TimeRange{
		mediatime.NewTimeRange(0, 10*time.Second),
		mediatime.NewTimeRange(20*time.Second, 30*time.Second),
	}
	last, ok := mediatime.Last(ranges)
	if !ok || last.End() != 30*time.Second {
		t.Errorf("expected last range ending at 30s, got %+v", last)
	}
}
