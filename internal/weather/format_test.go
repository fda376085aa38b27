package weather_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/rk-weather/internal/weather"
)

var fixedNow = time.Date(2025, time.October, 16, 12, 0, 0, 0, time.UTC)

func utcFormatter() weather.Formatter {
	return weather.Formatter{Location: time.UTC, Now: func() time.Time { return fixedNow }}
}

func decodeCurrent(t *testing.T, body string) *weather.CurrentPayload {
	t.Helper()
	var raw weather.CurrentPayload
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return &raw
}

func sample(at time.Time, tmin, tmax float64) weather.ForecastSample {
	var s weather.ForecastSample
	s.Dt = at.Unix()
	s.Main.Temp = (tmin + tmax) / 2
	s.Main.TempMin = tmin
	s.Main.TempMax = tmax
	s.Main.Humidity = 65
	s.Weather = []weather.Condition{{ID: 500, Description: "pluie légère", Icon: "10d"}}
	s.Wind.Speed = 5
	s.Pop = 0.35
	return s
}

// threeHourly builds n samples spaced three hours apart from start.
func threeHourly(start time.Time, n int) *weather.ForecastPayload {
	raw := &weather.ForecastPayload{}
	for i := 0; i < n; i++ {
		raw.List = append(raw.List, sample(start.Add(time.Duration(i)*3*time.Hour), 10, 20))
	}
	return raw
}

// ---- current conditions ----

const parisCurrent = `{
	"name": "Paris",
	"dt": 1760616000,
	"main": {"temp": 18.6, "feels_like": 17.2, "pressure": 1013, "humidity": 72},
	"weather": [{"id": 803, "main": "Clouds", "description": "nuageux", "icon": "04d"}],
	"wind": {"speed": 4.1, "deg": 225},
	"clouds": {"all": 75},
	"visibility": 9650,
	"sys": {"country": "FR", "sunrise": 1760595120, "sunset": 1760634000}
}`

func TestFormatCurrent_Metric(t *testing.T) {
	got := utcFormatter().Current(decodeCurrent(t, parisCurrent), weather.Metric)
	require.NotNil(t, got)

	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "FR", got.Country)
	assert.Equal(t, 19, got.Temperature)
	assert.Equal(t, 17, got.FeelsLike)
	assert.Equal(t, "nuageux", got.Condition)
	assert.Equal(t, 803, got.ConditionID)
	assert.Equal(t, 72, got.Humidity)
	assert.Equal(t, 15, got.WindSpeed, "4.1 m/s is 14.76 km/h")
	assert.Equal(t, "SO", got.WindDirection)
	assert.Equal(t, 1013, got.Pressure)
	assert.Equal(t, "06:12", got.Sunrise)
	assert.Equal(t, "17:00", got.Sunset)
	assert.InDelta(t, 9.7, got.Visibility, 1e-9)
	assert.Equal(t, 75, got.Cloudiness)
	assert.Equal(t, weather.Metric, got.Unit)
	assert.Equal(t, "2025-10-16T12:00:00.000Z", got.Timestamp)
}

func TestFormatCurrent_ImperialKeepsMph(t *testing.T) {
	got := utcFormatter().Current(decodeCurrent(t, parisCurrent), weather.Imperial)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.WindSpeed)
	assert.Equal(t, weather.Imperial, got.Unit)
}

func TestFormatCurrent_Nil(t *testing.T) {
	assert.Nil(t, utcFormatter().Current(nil, weather.Metric))
}

func TestFormatCurrent_MissingFieldsDefault(t *testing.T) {
	got := utcFormatter().Current(decodeCurrent(t, `{"name": "Nowhere", "main": {"temp": 1.2}}`), weather.Metric)
	require.NotNil(t, got)

	assert.Equal(t, "", got.Country)
	assert.Equal(t, "", got.Condition)
	assert.Equal(t, 800, got.ConditionID)
	assert.Equal(t, "", got.WindDirection, "absent wind.deg gives no direction")
	assert.Equal(t, 0, got.Cloudiness)
	assert.Equal(t, 1, got.Temperature)
}

func TestWindDirection(t *testing.T) {
	cases := map[float64]string{
		0:     "N",
		22.4:  "N",
		22.5:  "NE",
		45:    "NE",
		90:    "E",
		135:   "SE",
		180:   "S",
		225:   "SO",
		270:   "O",
		315:   "NO",
		337.5: "N",
		359:   "N",
	}
	for deg, want := range cases {
		assert.Equal(t, want, weather.WindDirection(deg), "degrees %v", deg)
	}
}

// ---- daily ----

func TestFormatDaily_Empty(t *testing.T) {
	f := utcFormatter()
	assert.Equal(t, []weather.DailyForecastEntry{}, f.Daily(nil, weather.Metric))
	assert.Equal(t, []weather.DailyForecastEntry{}, f.Daily(&weather.ForecastPayload{}, weather.Metric))
	assert.Equal(t, []weather.DailyForecastEntry{}, f.Daily(&weather.ForecastPayload{List: []weather.ForecastSample{}}, weather.Metric))
}

func TestFormatDaily_MergesMinMaxWithinDay(t *testing.T) {
	morning := time.Date(2025, time.October, 16, 6, 0, 0, 0, time.UTC)
	first := sample(morning, 10, 18)
	second := sample(morning.Add(3*time.Hour), 14, 20)
	second.Main.Humidity = 40
	second.Weather = []weather.Condition{{ID: 800, Description: "ciel dégagé", Icon: "01d"}}

	got := utcFormatter().Daily(&weather.ForecastPayload{List: []weather.ForecastSample{first, second}}, weather.Metric)
	require.Len(t, got, 1)

	day := got[0]
	assert.Equal(t, "jeu. 16 oct.", day.Date)
	assert.Equal(t, 10, day.TempMin)
	assert.Equal(t, 20, day.TempMax)
	assert.Equal(t, 65, day.Humidity, "first sample seeds humidity")
	assert.Equal(t, "pluie légère", day.Condition, "first sample seeds the description")
	assert.Equal(t, "10d", day.Icon)
	assert.Equal(t, 18, day.WindSpeed, "5 m/s is 18 km/h")
}

func TestFormatDaily_FortySamplesFromNoonSpanSixDays(t *testing.T) {
	start := time.Date(2025, time.October, 16, 12, 0, 0, 0, time.UTC)
	got := utcFormatter().Daily(threeHourly(start, 40), weather.Metric)

	require.Len(t, got, 6)
	assert.Equal(t, "jeu. 16 oct.", got[0].Date)
	assert.Equal(t, "mar. 21 oct.", got[5].Date)
}

func TestFormatDaily_KeepsFirstSevenDays(t *testing.T) {
	start := time.Date(2025, time.December, 28, 9, 0, 0, 0, time.UTC)
	raw := &weather.ForecastPayload{}
	for i := 0; i < 10; i++ {
		raw.List = append(raw.List, sample(start.AddDate(0, 0, i), float64(i), float64(i+10)))
	}

	got := utcFormatter().Daily(raw, weather.Metric)
	require.Len(t, got, 7)
	assert.Equal(t, "dim. 28 déc.", got[0].Date)
	assert.Equal(t, "sam. 3 janv.", got[6].Date)
	assert.Equal(t, 6, got[6].TempMin)
}

func TestFormatDaily_ImperialWindUntouched(t *testing.T) {
	start := time.Date(2025, time.October, 16, 12, 0, 0, 0, time.UTC)
	got := utcFormatter().Daily(threeHourly(start, 1), weather.Imperial)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].WindSpeed)
}

// ---- hourly ----

func TestFormatHourly_Empty(t *testing.T) {
	f := utcFormatter()
	assert.Equal(t, []weather.HourlyForecastEntry{}, f.Hourly(nil))
	assert.Equal(t, []weather.HourlyForecastEntry{}, f.Hourly(&weather.ForecastPayload{}))
}

func TestFormatHourly_FirstEightVerbatim(t *testing.T) {
	start := time.Date(2025, time.October, 16, 0, 0, 0, 0, time.UTC)
	raw := threeHourly(start, 40)
	raw.List[1].Pop = 0

	got := utcFormatter().Hourly(raw)
	require.Len(t, got, 8)

	assert.Equal(t, "00 h", got[0].Time)
	assert.Equal(t, "21 h", got[7].Time)
	assert.Equal(t, 15, got[0].Temperature)
	assert.Equal(t, 35, got[0].Precipitation)
	assert.Equal(t, 0, got[1].Precipitation)
	assert.Equal(t, 500, got[0].ConditionID)
	assert.Equal(t, "10d", got[0].Icon)
	assert.Equal(t, 65, got[0].Humidity)
}

func TestFormatHourly_ShortList(t *testing.T) {
	start := time.Date(2025, time.October, 16, 0, 0, 0, 0, time.UTC)
	got := utcFormatter().Hourly(threeHourly(start, 3))
	assert.Len(t, got, 3)
}
