package output

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text holds a JSON scalar as text. Models mix numbers and strings for the
// same field, so both decode; numbers keep their literal form.
type Text string

func (t *Text) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if string(raw) == "null" {
		*t = ""
		return nil
	}
	*t = Text(raw)
	return nil
}

// Float parses the text as a number, ignoring thousands separators and a
// leading currency symbol.
func (t Text) Float() (float64, bool) {
	s := strings.TrimSpace(string(t))
	s = strings.TrimLeft(s, "$₹€£ ")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Leg is one hop of a route. Mode is one of train, truck, flight or ship.
type Leg struct {
	From     Text `json:"from"`
	To       Text `json:"to"`
	Distance Text `json:"distance"`
	Mode     Text `json:"mode"`
}

// UnmarshalJSON also accepts the legacy "by" key for the mode.
func (l *Leg) UnmarshalJSON(raw []byte) error {
	var wire struct {
		From     Text `json:"from"`
		To       Text `json:"to"`
		Distance Text `json:"distance"`
		Mode     Text `json:"mode"`
		By       Text `json:"by"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	l.From, l.To, l.Distance, l.Mode = wire.From, wire.To, wire.Distance, wire.Mode
	if l.Mode == "" {
		l.Mode = wire.By
	}
	return nil
}

type RouteOption struct {
	TotalCost           Text  `json:"total_cost"`
	TotalTime           Text  `json:"total_time"`
	TotalCarbonEmission Text  `json:"total_carbon_emission"`
	Feature             Text  `json:"feature"`
	Route               []Leg `json:"route"`
}

// Result is a validated pipeline answer.
type Result struct {
	Routes    []RouteOption
	Canonical string
}
