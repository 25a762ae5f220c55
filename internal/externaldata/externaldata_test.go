package externaldata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineTrafficAndWeather_OverlappingCellsMultiply(t *testing.T) {
	traffic := map[string]float64{"a>b": 2.0}
	weather := map[string]WeatherImpact{"a>b": 1.5}

	combined := CombineTrafficAndWeather(traffic, weather, []string{"a", "b"})

	assert.Equal(t, 3.0, combined["a>b"])
}

func TestCombineTrafficAndWeather_EndpointWeatherFillsNewCells(t *testing.T) {
	traffic := map[string]float64{}
	weather := map[string]WeatherImpact{"a": 1.2, "b": 1.8}

	combined := CombineTrafficAndWeather(traffic, weather, []string{"a", "b", "c"})

	// max of the two endpoint impacts
	assert.Equal(t, 1.8, combined["a>b"])
	assert.Equal(t, 1.8, combined["b>a"])
	// single known endpoint carries its own impact
	assert.Equal(t, 1.2, combined["a>c"])
	assert.Equal(t, 1.8, combined["b>c"])
	// no weather on either endpoint leaves the cell absent
	_, ok := combined["c>c"]
	assert.False(t, ok)
}

func TestCombineTrafficAndWeather_TrafficCellsSurviveUntouched(t *testing.T) {
	traffic := map[string]float64{"a>b": 2.5}
	weather := map[string]WeatherImpact{"a": 1.4}

	combined := CombineTrafficAndWeather(traffic, weather, []string{"a", "b"})

	// the explicit traffic cell is not re-derived from endpoint weather
	assert.Equal(t, 2.5, combined["a>b"])
	// but the reverse direction is new and gets the endpoint impact
	assert.Equal(t, 1.4, combined["b>a"])
}

func TestMockProviderReturnsConfiguredData(t *testing.T) {
	m := NewMock()
	m.Traffic["a>b"] = 1.7
	m.Weather["a"] = 1.1
	m.Blocked = [][2]string{{"a", "b"}}

	ctx := context.Background()

	traffic, err := m.TrafficFactors(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1.7, traffic["a>b"])

	weather, err := m.WeatherImpact(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 1.1, weather["a"])

	blocked, err := m.Roadblocks(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, [2]string{"a", "b"}, blocked[0])
}
