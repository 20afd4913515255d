package tool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolRoadways = "get_roadways_route_info"

	// Average car emission.
	roadEmissionKgPerKm = 0.192
)

type RoadwaysInput struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

type RoadRoute struct {
	RouteSteps          []string `json:"route_steps"`
	TotalDistanceKm     float64  `json:"total_distance_km"`
	EstimatedTimeMin    float64  `json:"estimated_time_min"`
	EstimatedEmissionKg float64  `json:"estimated_emission_kg"`
}

// roadways talks to the OpenRouteService geocoding and directions APIs.
type roadways struct {
	fetcher *Fetcher
	baseURL string
	apiKey  string
}

func RoadwaysDefinition(fetcher *Fetcher, baseURL, apiKey string) Definition {
	r := &roadways{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
	return Definition{
		Name: ToolRoadways,
		Desc: "Driving route between two places: step-by-step instructions, total distance in km, time in minutes and CO2 emission in kg (192 g/km).",
		Params: map[string]*schema.ParameterInfo{
			"source":      {Type: schema.String, Desc: "Start place, e.g. 'India Gate, New Delhi'", Required: true},
			"destination": {Type: schema.String, Desc: "End place, e.g. 'Surat'", Required: true},
		},
		Handler: Typed(r.run),
	}
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type orsDirectionsResponse struct {
	Features []struct {
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Steps    []struct {
					Instruction string `json:"instruction"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

func (r *roadways) run(ctx context.Context, in RoadwaysInput) (RoadRoute, error) {
	if r.apiKey == "" {
		return RoadRoute{}, errors.New("openrouteservice api key is not configured")
	}

	src, err := r.geocode(ctx, in.Source)
	if err != nil {
		return RoadRoute{}, err
	}
	dst, err := r.geocode(ctx, in.Destination)
	if err != nil {
		return RoadRoute{}, err
	}

	body := map[string]any{"coordinates": [][]float64{src, dst}}
	header := http.Header{}
	header.Set("Authorization", r.apiKey)

	var resp orsDirectionsResponse
	if err := r.fetcher.PostJSON(ctx, r.baseURL+"/v2/directions/driving-car/geojson", header, body, &resp); err != nil {
		return RoadRoute{}, err
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Properties.Segments) == 0 {
		return RoadRoute{}, fmt.Errorf("no driving route between %s and %s", in.Source, in.Destination)
	}

	seg := resp.Features[0].Properties.Segments[0]
	steps := make([]string, 0, len(seg.Steps))
	for _, s := range seg.Steps {
		steps = append(steps, s.Instruction)
	}
	distanceKm := seg.Distance / 1000

	return RoadRoute{
		RouteSteps:          steps,
		TotalDistanceKm:     round2(distanceKm),
		EstimatedTimeMin:    round2(seg.Duration / 60),
		EstimatedEmissionKg: round2(distanceKm * roadEmissionKgPerKm),
	}, nil
}

// geocode returns [lng, lat] as the directions API expects.
func (r *roadways) geocode(ctx context.Context, text string) ([]float64, error) {
	q := url.Values{}
	q.Set("api_key", r.apiKey)
	q.Set("text", text)
	q.Set("size", "1")

	var resp orsGeocodeResponse
	if err := r.fetcher.GetJSON(ctx, r.baseURL+"/geocode/search?"+q.Encode(), http.Header{}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrNotGeocoded, text)
	}
	return resp.Features[0].Geometry.Coordinates[:2], nil
}
