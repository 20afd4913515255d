package tool

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const ToolStockForecast = "stock_forecast"

// StockForecaster predicts the stock each product will require.
type StockForecaster interface {
	Forecast(ctx context.Context, products []string) (map[string]int, error)
}

// HTTPForecaster calls an external forecasting service that accepts
// {"products": [...]} and answers with a product -> units map.
type HTTPForecaster struct {
	fetcher *Fetcher
	url     string
}

func NewHTTPForecaster(fetcher *Fetcher, url string) *HTTPForecaster {
	return &HTTPForecaster{fetcher: fetcher, url: strings.TrimSpace(url)}
}

func (f *HTTPForecaster) Forecast(ctx context.Context, products []string) (map[string]int, error) {
	if f.url == "" {
		return nil, errors.New("stock forecasting service is not configured")
	}
	out := map[string]int{}
	if err := f.fetcher.PostJSON(ctx, f.url, http.Header{}, ProductList{Products: products}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type StockForecastInput struct {
	Products []string `json:"products" validate:"required,min=1,dive,required"`
}

func StockForecastDefinition(forecaster StockForecaster) Definition {
	return Definition{
		Name: ToolStockForecast,
		Desc: "Predict the future stock requirement for a list of products. Returns a map from product name to required units.",
		Params: map[string]*schema.ParameterInfo{
			"products": {
				Type:     schema.Array,
				Desc:     "Product names to forecast",
				Required: true,
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
		},
		Handler: Typed(func(ctx context.Context, in StockForecastInput) (map[string]int, error) {
			return forecaster.Forecast(ctx, in.Products)
		}),
	}
}
