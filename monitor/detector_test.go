package monitor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDetector(t *testing.T, size int, threshold float64) *ZDetector {
	t.Helper()
	d, err := NewZDetector(size, threshold)
	require.NoError(t, err)
	return d
}

func TestNewZDetectorValidation(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		threshold float64
		wantErr   bool
	}{
		{"defaults", 100, DefaultThreshold, false},
		{"zero threshold", 1, 0, false},
		{"zero window", 0, 3, true},
		{"negative window", -5, 3, true},
		{"negative threshold", 10, -0.5, true},
		{"nan threshold", 10, math.NaN(), true},
		{"infinite threshold", 10, math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewZDetector(tt.size, tt.threshold)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, d.Size())
			assert.Equal(t, tt.threshold, d.Threshold())
		})
	}
}

func TestDetectWarmUpIsUnscored(t *testing.T) {
	for _, size := range []int{1, 2, 5, 50} {
		d := mustDetector(t, size, DefaultThreshold)
		for i := 0; i < size; i++ {
			assert.Equal(t, StateWarmingUp, d.State())
			res, err := d.Detect(float64(i * 1000))
			require.NoError(t, err)
			assert.False(t, res.Scored, "size %d call %d", size, i)
			assert.False(t, res.Anomaly)
		}
		assert.Equal(t, StateActive, d.State())

		res, err := d.Detect(0)
		require.NoError(t, err)
		assert.True(t, res.Scored)
		assert.Equal(t, StateActive, d.State())
	}
}

func TestDetectZeroVarianceWindow(t *testing.T) {
	d := mustDetector(t, 3, 2.0)

	var got []Result
	for _, v := range []float64{1, 1, 1, 10} {
		res, err := d.Detect(v)
		require.NoError(t, err)
		got = append(got, res)
	}

	assert.Equal(t, []Result{
		{}, {}, {},
		{Score: 0, Scored: true, Anomaly: false},
	}, got)
}

func TestDetectConstantStreamNeverFlags(t *testing.T) {
	d := mustDetector(t, 10, 0)
	for i := 0; i < 100; i++ {
		res, err := d.Detect(0.3)
		require.NoError(t, err)
		assert.Zero(t, res.Score)
		assert.False(t, res.Anomaly)
	}
	_, std, err := d.Baseline()
	require.NoError(t, err)
	assert.Zero(t, std)
}

func TestDetectLargeDeviation(t *testing.T) {
	d := mustDetector(t, 4, 3.0)

	for _, v := range []float64{10, 12, 11, 9} {
		res, err := d.Detect(v)
		require.NoError(t, err)
		assert.False(t, res.Scored)
	}

	res, err := d.Detect(50)
	require.NoError(t, err)
	assert.True(t, res.Scored)
	assert.True(t, res.Anomaly)
	assert.InDelta(t, 39.5/math.Sqrt(1.25), res.Score, 1e-9)
	assert.InDelta(t, 35.33, res.Score, 0.01)

	assert.Equal(t, []float64{12, 11, 9, 50}, d.Window())
}

func TestDetectScoreExcludesCurrentSample(t *testing.T) {
	d := mustDetector(t, 2, 3.0)
	for _, v := range []float64{0, 2} {
		_, err := d.Detect(v)
		require.NoError(t, err)
	}

	// baseline [0 2]: mean 1, std 1. Including 7 would give a much smaller score.
	res, err := d.Detect(7)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, res.Score, 1e-12)
	assert.True(t, res.Anomaly)
}

func TestDetectNegativeDeviation(t *testing.T) {
	d := mustDetector(t, 2, 3.0)
	for _, v := range []float64{0, 2} {
		_, err := d.Detect(v)
		require.NoError(t, err)
	}

	res, err := d.Detect(-5)
	require.NoError(t, err)
	assert.InDelta(t, -6.0, res.Score, 1e-12)
	assert.True(t, res.Anomaly)
}

func TestDetectThresholdIsStrict(t *testing.T) {
	d := mustDetector(t, 2, 6.0)
	for _, v := range []float64{0, 2} {
		_, err := d.Detect(v)
		require.NoError(t, err)
	}

	res, err := d.Detect(7)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, res.Score, 1e-12)
	assert.False(t, res.Anomaly)
}

func TestDetectRejectsNonFiniteSamples(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		d := mustDetector(t, 3, DefaultThreshold)
		for _, v := range []float64{1, 2, 3} {
			_, err := d.Detect(v)
			require.NoError(t, err)
		}
		before := d.Window()
		meanBefore, _, err := d.Baseline()
		require.NoError(t, err)

		res, err := d.Detect(bad)
		assert.ErrorIs(t, err, ErrInvalidSample)
		assert.Equal(t, Result{}, res)

		assert.Equal(t, before, d.Window())
		meanAfter, _, err := d.Baseline()
		require.NoError(t, err)
		assert.Equal(t, meanBefore, meanAfter)
	}
}

func TestDetectRejectsDuringWarmUp(t *testing.T) {
	d := mustDetector(t, 3, DefaultThreshold)
	_, err := d.Detect(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidSample)
	assert.Empty(t, d.Window())
	assert.Equal(t, StateWarmingUp, d.State())
}

func TestDetectIsDeterministic(t *testing.T) {
	input := make([]float64, 500)
	for i := range input {
		input[i] = math.Sin(float64(i)/7) * float64(i%13)
		if i%97 == 0 {
			input[i] += 40
		}
	}

	run := func() []Result {
		d := mustDetector(t, 20, 2.5)
		out := make([]Result, 0, len(input))
		for _, v := range input {
			res, err := d.Detect(v)
			require.NoError(t, err)
			out = append(out, res)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "warming_up", StateWarmingUp.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestDetectNearFloatRange(t *testing.T) {
	tests := []struct {
		name    string
		window  []float64
		x       float64
		want    float64
		anomaly bool
	}{
		// mean 0.75·max, std 0.25·max: summing raw values would overflow
		{"huge baseline", []float64{math.MaxFloat64, math.MaxFloat64 / 2}, 0, -3, false},
		// squared deviations of ±1e200 overflow; the true z is 1e108
		{"huge spread", []float64{1e200, -1e200}, 1e308, 1e108, true},
		{"huge negative baseline", []float64{-math.MaxFloat64, -math.MaxFloat64 / 2}, math.MaxFloat64, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDetector(t, len(tt.window), DefaultThreshold)
			for _, v := range tt.window {
				_, err := d.Detect(v)
				require.NoError(t, err)
			}

			res, err := d.Detect(tt.x)
			require.NoError(t, err)
			assert.True(t, res.Scored)
			assert.False(t, math.IsNaN(res.Score))
			assert.False(t, math.IsInf(res.Score, 0))
			assert.InEpsilon(t, tt.want, res.Score, 1e-9)
			assert.Equal(t, tt.anomaly, res.Anomaly)
		})
	}
}

func TestDetectSaturatesUnrepresentableScore(t *testing.T) {
	for _, x := range []float64{math.MaxFloat64, -math.MaxFloat64} {
		d := mustDetector(t, 2, DefaultThreshold)
		for _, v := range []float64{1, 2} {
			_, err := d.Detect(v)
			require.NoError(t, err)
		}

		res, err := d.Detect(x)
		require.NoError(t, err)
		assert.Equal(t, x, res.Score)
		assert.True(t, res.Anomaly)
	}
}
