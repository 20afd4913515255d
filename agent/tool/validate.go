package tool

import (
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/schema"
)

// validateArguments checks required parameters and JSON types. Unknown
// arguments are tolerated; models often send extras.
func validateArguments(params map[string]*schema.ParameterInfo, args map[string]any) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := params[name]
		value, ok := args[name]
		if !ok || value == nil {
			if p.Required {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if err := checkType(name, p, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, p *schema.ParameterInfo, value any) error {
	ok := true
	switch p.Type {
	case schema.String:
		_, ok = value.(string)
	case schema.Boolean:
		_, ok = value.(bool)
	case schema.Number:
		_, ok = toFloat(value)
	case schema.Integer:
		f, isNum := toFloat(value)
		ok = isNum && f == math.Trunc(f)
	case schema.Object:
		_, ok = value.(map[string]any)
	case schema.Array:
		items, isSlice := value.([]any)
		if !isSlice {
			ok = false
			break
		}
		for i, item := range items {
			if err := checkType(fmt.Sprintf("%s[%d]", name, i), p.ElemInfo, item); err != nil {
				return err
			}
		}
	}
	if !ok {
		return fmt.Errorf("argument %q must be %s", name, p.Type)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}
