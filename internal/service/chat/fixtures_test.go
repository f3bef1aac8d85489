package chat

import "github.com/zhouzirui/weather-chat/backend/internal/model/weather"

const mumbaiWire = `a:{"result":{"location":"Mumbai","temperature":30,"feelsLike":33,"conditions":"Clear","humidity":60,"windSpeed":10,"windGust":15}}`

func mumbaiResult() weather.Result {
	return weather.Result{
		Location:    "Mumbai",
		Temperature: 30,
		FeelsLike:   33,
		Conditions:  "Clear",
		Humidity:    60,
		WindSpeed:   10,
		WindGust:    15,
	}
}
