package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolSeaways = "get_seaways_route_info"

	defaultCargoTonnage     = 1000
	defaultFreightRateUSD   = 0.05
	seaEmissionKgPerTonneKm = 0.02
)

type SeawaysInput struct {
	SourcePort            string  `json:"source_port" validate:"required"`
	DestinationPort       string  `json:"destination_port" validate:"required"`
	CargoTonnage          float64 `json:"cargo_tonnage" validate:"gt=0"`
	FreightRatePerTonneKm float64 `json:"freight_rate_per_tonne_km" validate:"gt=0"`
}

func (in *SeawaysInput) Defaults() {
	if in.CargoTonnage == 0 {
		in.CargoTonnage = defaultCargoTonnage
	}
	if in.FreightRatePerTonneKm == 0 {
		in.FreightRatePerTonneKm = defaultFreightRateUSD
	}
}

type SeaRoute struct {
	SourceCoordinates      [2]float64 `json:"source_coordinates"`
	DestinationCoordinates [2]float64 `json:"destination_coordinates"`
	EstimatedDistanceKm    float64    `json:"estimated_distance_km"`
	EstimatedEmissionKg    float64    `json:"estimated_emission_kg"`
	AssumedCargoTonnage    float64    `json:"assumed_cargo_tonnage"`
	EstimatedPriceUSD      float64    `json:"estimated_price_usd"`
	FreightRatePerTonneKm  float64    `json:"freight_rate_per_tonne_km"`
}

// seaways approximates a sea lane by the straight line between the ports.
type seaways struct {
	geocoder Geocoder
}

func SeawaysDefinition(geocoder Geocoder) Definition {
	s := &seaways{geocoder: geocoder}
	return Definition{
		Name: ToolSeaways,
		Desc: "Estimate a sea freight leg between two ports: distance in km, CO2 in kg and price in USD for the given cargo tonnage.",
		Params: map[string]*schema.ParameterInfo{
			"source_port":               {Type: schema.String, Desc: "Source port, e.g. 'Mundra Port, India'", Required: true},
			"destination_port":          {Type: schema.String, Desc: "Destination port, e.g. 'Port of Rotterdam, Netherlands'", Required: true},
			"cargo_tonnage":             {Type: schema.Number, Desc: "Cargo weight in tonnes, default 1000"},
			"freight_rate_per_tonne_km": {Type: schema.Number, Desc: "Freight rate in USD per tonne-km, default 0.05"},
		},
		Handler: Typed(s.run),
	}
}

func (s *seaways) run(ctx context.Context, in SeawaysInput) (SeaRoute, error) {
	src, err := s.geocoder.Geocode(ctx, in.SourcePort)
	if err != nil {
		return SeaRoute{}, err
	}
	dst, err := s.geocoder.Geocode(ctx, in.DestinationPort)
	if err != nil {
		return SeaRoute{}, err
	}

	distance := DistanceKm(src, dst)
	return SeaRoute{
		SourceCoordinates:      [2]float64{src.Lat, src.Lng},
		DestinationCoordinates: [2]float64{dst.Lat, dst.Lng},
		EstimatedDistanceKm:    round2(distance),
		EstimatedEmissionKg:    round2(distance * in.CargoTonnage * seaEmissionKgPerTonneKm),
		AssumedCargoTonnage:    in.CargoTonnage,
		EstimatedPriceUSD:      round2(distance * in.CargoTonnage * in.FreightRatePerTonneKm),
		FreightRatePerTonneKm:  in.FreightRatePerTonneKm,
	}, nil
}
