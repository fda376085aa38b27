package weather

// Unit selects the measurement system used for temperatures and wind speed.
type Unit string

const (
	Metric   Unit = "metric"
	Imperial Unit = "imperial"
)

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u == Metric || u == Imperial
}

// CurrentConditions is the current-weather view model.
// Unit always matches the scale of Temperature, FeelsLike and WindSpeed.
type CurrentConditions struct {
	City          string  `json:"city"`
	Country       string  `json:"country"`
	Temperature   int     `json:"temperature"`
	FeelsLike     int     `json:"feelsLike"`
	Condition     string  `json:"condition"`
	ConditionID   int     `json:"conditionId"`
	Humidity      int     `json:"humidity"`
	WindSpeed     int     `json:"windSpeed"`
	WindDirection string  `json:"windDirection"`
	Pressure      int     `json:"pressure"`
	Sunrise       string  `json:"sunrise"`
	Sunset        string  `json:"sunset"`
	Visibility    float64 `json:"visibility"`
	Cloudiness    int     `json:"cloudiness"`
	Unit          Unit    `json:"unit"`
	Timestamp     string  `json:"timestamp"`
}

// DailyForecastEntry is one calendar day aggregated from 3-hour samples.
type DailyForecastEntry struct {
	Date      string `json:"date"`
	TempMin   int    `json:"temp_min"`
	TempMax   int    `json:"temp_max"`
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
	Humidity  int    `json:"humidity"`
	WindSpeed int    `json:"windSpeed"`
}

// HourlyForecastEntry is a single 3-hour sample, unaggregated.
type HourlyForecastEntry struct {
	Time          string `json:"time"`
	Temperature   int    `json:"temperature"`
	Condition     string `json:"condition"`
	ConditionID   int    `json:"conditionId"`
	Humidity      int    `json:"humidity"`
	Precipitation int    `json:"precipitation"`
	Icon          string `json:"icon"`
}

// CityMatch is a geocoding hit returned by SearchCities.
type CityMatch struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Label   string  `json:"label"`
}

// ---- result envelopes ----

// CurrentResult is returned by the current-conditions lookups.
// On failure Success is false, Data is nil and Error holds a user-facing message.
type CurrentResult struct {
	Success bool               `json:"success"`
	Data    *CurrentConditions `json:"data"`
	Raw     *CurrentPayload    `json:"raw,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ForecastResult carries both daily and hourly views of one forecast payload.
type ForecastResult struct {
	Success bool                  `json:"success"`
	Daily   []DailyForecastEntry  `json:"data"`
	Hourly  []HourlyForecastEntry `json:"hourly"`
	Raw     *ForecastPayload      `json:"raw,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// CitiesResult is returned by SearchCities. Data is empty, never nil, on failure.
type CitiesResult struct {
	Success bool        `json:"success"`
	Data    []CityMatch `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// ---- upstream payloads ----

// Condition is an entry of the upstream "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentPayload is the /weather response.
type CurrentPayload struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility float64 `json:"visibility"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// ForecastSample is one 3-hour entry of the /forecast list.
type ForecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Pop float64 `json:"pop"`
}

// ForecastPayload is the /forecast response.
type ForecastPayload struct {
	List []ForecastSample `json:"list"`
}

type geoEntry struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
