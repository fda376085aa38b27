package weather

import (
	"fmt"
	"math"
	"time"
)

const (
	maxDailyEntries  = 7
	maxHourlyEntries = 8

	// msToKmh converts the upstream metric wind speed (m/s) to km/h.
	msToKmh = 3.6

	defaultConditionID = 800
	isoMillis          = "2006-01-02T15:04:05.000Z"
)

var (
	frWeekdays = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}
	frMonths   = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}
)

// Formatter turns upstream payloads into view models. Location controls how
// epoch timestamps are rendered as labels; Now stamps CurrentConditions.
type Formatter struct {
	Location *time.Location
	Now      func() time.Time
}

// DefaultFormatter renders labels in the process time zone.
var DefaultFormatter = Formatter{Location: time.Local, Now: time.Now}

// Current maps a /weather payload to CurrentConditions. It returns nil for a
// nil payload.
func (f Formatter) Current(raw *CurrentPayload, unit Unit) *CurrentConditions {
	if raw == nil {
		return nil
	}

	condition := ""
	conditionID := defaultConditionID
	if len(raw.Weather) > 0 {
		condition = raw.Weather[0].Description
		if raw.Weather[0].ID != 0 {
			conditionID = raw.Weather[0].ID
		}
	}

	direction := ""
	if raw.Wind.Deg != nil {
		direction = WindDirection(*raw.Wind.Deg)
	}

	return &CurrentConditions{
		City:          raw.Name,
		Country:       raw.Sys.Country,
		Temperature:   round(raw.Main.Temp),
		FeelsLike:     round(raw.Main.FeelsLike),
		Condition:     condition,
		ConditionID:   conditionID,
		Humidity:      round(raw.Main.Humidity),
		WindSpeed:     round(windSpeed(raw.Wind.Speed, unit)),
		WindDirection: direction,
		Pressure:      round(raw.Main.Pressure),
		Sunrise:       f.clockLabel(raw.Sys.Sunrise),
		Sunset:        f.clockLabel(raw.Sys.Sunset),
		Visibility:    math.Round(raw.Visibility/100) / 10,
		Cloudiness:    raw.Clouds.All,
		Unit:          unit,
		Timestamp:     f.now().UTC().Format(isoMillis),
	}
}

type dayAccumulator struct {
	date        string
	tempMin     float64
	tempMax     float64
	humidity    float64
	windSpeed   float64
	icon        string
	description string
}

// Daily groups 3-hour samples by calendar-day label. The first sample of a
// day seeds every field; later samples only widen the min/max range. At most
// seven days are kept, in first-seen order.
//
// The grouping key is the display label ("lun. 16 oct."), not a date, so two
// samples a year apart with the same label would be merged.
func (f Formatter) Daily(raw *ForecastPayload, unit Unit) []DailyForecastEntry {
	if raw == nil || len(raw.List) == 0 {
		return []DailyForecastEntry{}
	}

	groups := make(map[string]*dayAccumulator)
	order := make([]string, 0, maxDailyEntries)

	for _, sample := range raw.List {
		label := f.dayLabel(sample.Dt)

		day, ok := groups[label]
		if !ok {
			icon, description := "", ""
			if len(sample.Weather) > 0 {
				icon = sample.Weather[0].Icon
				description = sample.Weather[0].Description
			}
			groups[label] = &dayAccumulator{
				date:        label,
				tempMin:     sample.Main.TempMin,
				tempMax:     sample.Main.TempMax,
				humidity:    sample.Main.Humidity,
				windSpeed:   windSpeed(sample.Wind.Speed, unit),
				icon:        icon,
				description: description,
			}
			order = append(order, label)
			continue
		}

		day.tempMin = math.Min(day.tempMin, sample.Main.TempMin)
		day.tempMax = math.Max(day.tempMax, sample.Main.TempMax)
	}

	if len(order) > maxDailyEntries {
		order = order[:maxDailyEntries]
	}

	out := make([]DailyForecastEntry, 0, len(order))
	for _, label := range order {
		day := groups[label]
		out = append(out, DailyForecastEntry{
			Date:      day.date,
			TempMin:   round(day.tempMin),
			TempMax:   round(day.tempMax),
			Condition: day.description,
			Icon:      day.icon,
			Humidity:  round(day.humidity),
			WindSpeed: round(day.windSpeed),
		})
	}

	return out
}

// Hourly takes the first eight samples verbatim.
func (f Formatter) Hourly(raw *ForecastPayload) []HourlyForecastEntry {
	if raw == nil || len(raw.List) == 0 {
		return []HourlyForecastEntry{}
	}

	samples := raw.List
	if len(samples) > maxHourlyEntries {
		samples = samples[:maxHourlyEntries]
	}

	out := make([]HourlyForecastEntry, 0, len(samples))
	for _, sample := range samples {
		entry := HourlyForecastEntry{
			Time:          f.hourLabel(sample.Dt),
			Temperature:   round(sample.Main.Temp),
			Humidity:      round(sample.Main.Humidity),
			Precipitation: round(sample.Pop * 100),
		}
		if len(sample.Weather) > 0 {
			entry.Condition = sample.Weather[0].Description
			entry.ConditionID = sample.Weather[0].ID
			entry.Icon = sample.Weather[0].Icon
		}
		out = append(out, entry)
	}

	return out
}

// WindDirection buckets compass degrees into eight 45° sectors centred on
// N, NE, E, SE, S, SO, O and NO. NaN yields "".
func WindDirection(deg float64) string {
	switch {
	case deg >= 337.5 || deg < 22.5:
		return "N"
	case deg >= 22.5 && deg < 67.5:
		return "NE"
	case deg >= 67.5 && deg < 112.5:
		return "E"
	case deg >= 112.5 && deg < 157.5:
		return "SE"
	case deg >= 157.5 && deg < 202.5:
		return "S"
	case deg >= 202.5 && deg < 247.5:
		return "SO"
	case deg >= 247.5 && deg < 292.5:
		return "O"
	case deg >= 292.5 && deg < 337.5:
		return "NO"
	}
	return ""
}

// windSpeed converts m/s to km/h for metric payloads. Imperial payloads are
// already in mph.
func windSpeed(speed float64, unit Unit) float64 {
	if unit == Imperial {
		return speed
	}
	return speed * msToKmh
}

func (f Formatter) local(epoch int64) time.Time {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(epoch, 0).In(loc)
}

func (f Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// dayLabel renders "lun. 16 oct.".
func (f Formatter) dayLabel(epoch int64) string {
	t := f.local(epoch)
	return fmt.Sprintf("%s %d %s", frWeekdays[t.Weekday()], t.Day(), frMonths[t.Month()-1])
}

// hourLabel renders "14 h".
func (f Formatter) hourLabel(epoch int64) string {
	return fmt.Sprintf("%02d h", f.local(epoch).Hour())
}

// clockLabel renders "06:12".
func (f Formatter) clockLabel(epoch int64) string {
	return f.local(epoch).Format("15:04")
}
