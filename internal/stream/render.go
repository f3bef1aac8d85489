package stream

import (
	"fmt"
	"strconv"

	"github.com/zhouzirui/weather-chat/backend/internal/model/weather"
)

const reportTemplate = "📍 Weather in %s\n" +
	"🌡️ Temperature: %s°C (feels like %s°C)\n" +
	"🌧️ Conditions: %s\n" +
	"💧 Humidity: %s%%\n" +
	"💨 Wind: %s km/h, gusts up to %s km/h"

// Render formats a weather result as the chat reply text.
func Render(r weather.Result) string {
	return fmt.Sprintf(reportTemplate,
		r.Location,
		formatNumber(r.Temperature),
		formatNumber(r.FeelsLike),
		r.Conditions,
		formatNumber(r.Humidity),
		formatNumber(r.WindSpeed),
		formatNumber(r.WindGust),
	)
}

// formatNumber prints the shortest representation: 30, 30.5, -2.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
