package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrInvalidDefinition = errors.New("invalid tool definition")
	ErrDuplicateTool     = errors.New("tool already registered")
)

// Handler runs a tool with already validated arguments. The returned value is
// JSON encoded into the tool message.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes one callable tool.
type Definition struct {
	Name    string
	Desc    string
	Params  map[string]*schema.ParameterInfo
	Handler Handler
	// Timeout overrides the executor default when > 0.
	Timeout time.Duration
}

func (d Definition) Info() *schema.ToolInfo {
	info := &schema.ToolInfo{Name: d.Name, Desc: d.Desc}
	if len(d.Params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(d.Params)
	}
	return info
}

type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

func (r *Registry) Register(def Definition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidDefinition)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool=%s has no handler", ErrInvalidDefinition, def.Name)
	}
	for name, p := range def.Params {
		if err := checkParam(name, p); err != nil {
			return fmt.Errorf("%w: tool=%s: %v", ErrInvalidDefinition, def.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

func (r *Registry) MustRegister(defs ...Definition) *Registry {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Infos returns tool infos in registration order, ready for WithTools.
func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name].Info())
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

func checkParam(name string, p *schema.ParameterInfo) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("parameter name is empty")
	}
	if p == nil {
		return fmt.Errorf("parameter %q is nil", name)
	}
	switch p.Type {
	case schema.String, schema.Number, schema.Integer, schema.Boolean, schema.Object:
		return nil
	case schema.Array:
		if p.ElemInfo == nil {
			return fmt.Errorf("array parameter %q needs an element type", name)
		}
		return checkParam(name+"[]", p.ElemInfo)
	default:
		return fmt.Errorf("parameter %q has unsupported type %q", name, p.Type)
	}
}
