package weather

// ConditionGroup describes a family of upstream condition codes for display.
type ConditionGroup struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Theme string `json:"theme"`
}

var (
	Thunderstorm = ConditionGroup{Key: "THUNDERSTORM", Label: "Orage", Icon: "⛈️", Theme: "stormy"}
	Drizzle      = ConditionGroup{Key: "DRIZZLE", Label: "Bruine", Icon: "🌧️", Theme: "rainy"}
	Rain         = ConditionGroup{Key: "RAIN", Label: "Pluie", Icon: "🌧️", Theme: "rainy"}
	Snow         = ConditionGroup{Key: "SNOW", Label: "Neige", Icon: "❄️", Theme: "snowy"}
	Atmosphere   = ConditionGroup{Key: "ATMOSPHERE", Label: "Brume", Icon: "🌫️", Theme: "cloudy"}
	Clear        = ConditionGroup{Key: "CLEAR", Label: "Clair", Icon: "☀️", Theme: "sunny"}
	Clouds       = ConditionGroup{Key: "CLOUDS", Label: "Nuageux", Icon: "☁️", Theme: "cloudy"}
)

var conditionCodes = map[*ConditionGroup][]int{
	&Thunderstorm: {200, 201, 202, 210, 211, 212, 221, 230, 231, 232},
	&Drizzle:      {300, 301, 302, 310, 311, 312, 313, 314, 321},
	&Rain:         {500, 501, 502, 503, 504, 511, 520, 521, 522, 531},
	&Snow:         {600, 601, 602, 611, 612, 613, 615, 616, 620, 621, 622},
	&Atmosphere:   {701, 711, 721, 731, 741, 751, 761, 762, 771, 781},
	&Clear:        {800},
	&Clouds:       {801, 802, 803, 804},
}

var groupByCode = func() map[int]ConditionGroup {
	m := make(map[int]ConditionGroup)
	for group, codes := range conditionCodes {
		for _, code := range codes {
			m[code] = *group
		}
	}
	return m
}()

// GroupFor returns the display group of an upstream condition code.
// Unknown codes fall back to Clear.
func GroupFor(code int) ConditionGroup {
	if g, ok := groupByCode[code]; ok {
		return g
	}
	return Clear
}

// UnitLabels are the display suffixes for one measurement system.
type UnitLabels struct {
	Temperature string `json:"temp"`
	Speed       string `json:"speed"`
	Pressure    string `json:"pressure"`
}

// LabelsFor returns the display suffixes for u.
func LabelsFor(u Unit) UnitLabels {
	if u == Imperial {
		return UnitLabels{Temperature: "°F", Speed: "mph", Pressure: "hPa"}
	}
	return UnitLabels{Temperature: "°C", Speed: "km/h", Pressure: "hPa"}
}
