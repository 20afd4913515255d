package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0088

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b LatLng) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var ErrNotGeocoded = errors.New("could not geocode place")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (LatLng, error)
}

// NominatimGeocoder resolves free-text places through the OpenStreetMap
// Nominatim search API.
type NominatimGeocoder struct {
	fetcher *Fetcher
	baseURL string
}

func NewNominatimGeocoder(fetcher *Fetcher, baseURL string) *NominatimGeocoder {
	return &NominatimGeocoder{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (LatLng, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	var places []nominatimPlace
	if err := g.fetcher.GetJSON(ctx, g.baseURL+"/search?"+q.Encode(), http.Header{}, &places); err != nil {
		return LatLng{}, err
	}
	if len(places) == 0 {
		return LatLng{}, fmt.Errorf("%w: %s", ErrNotGeocoded, query)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("parse latitude for %s: %w", query, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("parse longitude for %s: %w", query, err)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}
