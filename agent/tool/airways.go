package tool

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolAirways = "get_airways_route_info"

	// Average CO2 per passenger-km for flights.
	flightEmissionKgPerKm = 0.09
	flightSearchLeadDays  = 7
)

type AirwaysInput struct {
	SourceCode      string  `json:"source_code" validate:"required,len=3,alpha"`
	DestinationCode string  `json:"destination_code" validate:"required,len=3,alpha"`
	SourceLat       float64 `json:"source_lat" validate:"gte=-90,lte=90"`
	SourceLng       float64 `json:"source_lng" validate:"gte=-180,lte=180"`
	DestLat         float64 `json:"dest_lat" validate:"gte=-90,lte=90"`
	DestLng         float64 `json:"dest_lng" validate:"gte=-180,lte=180"`
}

type Flight struct {
	ExpectedTime     string  `json:"expected_time"`
	Price            string  `json:"price"`
	Stops            string  `json:"stops"`
	DistanceKm       float64 `json:"distance_km"`
	CarbonEmissionKg float64 `json:"carbon_emission_kg"`
}

type airways struct {
	fetcher *Fetcher
	baseURL string
	now     func() time.Time
}

func AirwaysDefinition(fetcher *Fetcher, baseURL string, now func() time.Time) Definition {
	a := &airways{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), now: now}
	return Definition{
		Name: ToolAirways,
		Desc: "Scrape flight options between two airports one week from today, with straight-line distance in km and estimated CO2 emission in kg (90 g per passenger-km).",
		Params: map[string]*schema.ParameterInfo{
			"source_code":      {Type: schema.String, Desc: "IATA code of the source airport, e.g. DEL", Required: true},
			"destination_code": {Type: schema.String, Desc: "IATA code of the destination airport, e.g. BOM", Required: true},
			"source_lat":       {Type: schema.Number, Desc: "Latitude of the source airport", Required: true},
			"source_lng":       {Type: schema.Number, Desc: "Longitude of the source airport", Required: true},
			"dest_lat":         {Type: schema.Number, Desc: "Latitude of the destination airport", Required: true},
			"dest_lng":         {Type: schema.Number, Desc: "Longitude of the destination airport", Required: true},
		},
		Handler: Typed(a.run),
	}
}

func (a *airways) run(ctx context.Context, in AirwaysInput) ([]Flight, error) {
	date := a.now().AddDate(0, 0, flightSearchLeadDays).Format("2006-01-02")
	target := fmt.Sprintf("%s/flight-search/%s-%s/%s?sort=bestflight_a",
		a.baseURL,
		url.PathEscape(strings.ToUpper(in.SourceCode)),
		url.PathEscape(strings.ToUpper(in.DestinationCode)),
		date,
	)

	doc, err := a.fetcher.GetHTML(ctx, target)
	if err != nil {
		return nil, err
	}

	distance := round2(DistanceKm(LatLng{in.SourceLat, in.SourceLng}, LatLng{in.DestLat, in.DestLng}))
	emission := round2(distance * flightEmissionKgPerKm)

	flights := make([]Flight, 0, 8)
	for _, card := range findAllByClass(doc, "Fxw9-result-item-container") {
		durations := findAllByClass(card, "vmXl-mod-variant-default")
		if len(durations) < 2 {
			continue
		}

		price := findByClass(card, "c_f8N-price-text")
		if price == nil {
			price = findByClass(card, "e2GB-price-text")
		}
		priceText := "N/A"
		if price != nil {
			priceText = textOf(price)
		}

		stops := "None"
		if airports := findAllByClass(card, "c_cgF-mod-variant-full-airport"); len(airports) == 3 {
			stops = textOf(airports[1])
		}

		flights = append(flights, Flight{
			ExpectedTime:     textOf(durations[1]),
			Price:            priceText,
			Stops:            stops,
			DistanceKm:       distance,
			CarbonEmissionKg: emission,
		})
	}
	return flights, nil
}
