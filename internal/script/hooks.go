package script

import (
	"context"

	"github.com/dop251/goja"

	"github.com/artpar/treeview/internal/tree"
)

// PressResultOf maps a hook's settled value to a press result. Only the
// boolean false vetoes; true allows; anything else expresses no preference.
func PressResultOf(v goja.Value) tree.PressResult {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return tree.PressDefault
	}
	if b, ok := v.Export().(bool); ok {
		if b {
			return tree.PressAllow
		}
		return tree.PressVeto
	}
	return tree.PressDefault
}

func eventArg(ev tree.NodeEvent) map[string]any {
	return map[string]any{"item": nodeArg(ev.Item), "level": ev.Level}
}

// Renderer returns a render function backed by the script's renderNode,
// or nil when the script does not define one. Script failures fall back
// to fallback's output.
func (e *Engine) Renderer(fallback tree.RenderFunc) tree.RenderFunc {
	if !e.Has(FuncRenderNode) {
		return nil
	}
	return func(p tree.NodeProps) string {
		v, err := e.Call(context.Background(), FuncRenderNode, map[string]any{
			"item":             nodeArg(p.Item),
			"level":            p.Level,
			"isExpanded":       p.IsExpanded,
			"hasChildrenNodes": p.HasChildrenNodes,
		})
		if err != nil {
			e.logger.Warn("renderNode failed", "error", err)
			if fallback != nil {
				return fallback(p)
			}
			return ""
		}
		return v.String()
	}
}

// Options returns tree options for every hook the script defines.
// idKey names the field under which getCollapsedNodeHeight receives the
// node identity.
func (e *Engine) Options(idKey string) []tree.Option {
	var opts []tree.Option

	if e.Has(FuncOnNodePress) {
		opts = append(opts, tree.WithOnNodePress(func(ctx context.Context, ev tree.NodeEvent) (tree.PressResult, error) {
			v, err := e.Call(ctx, FuncOnNodePress, eventArg(ev))
			if err != nil {
				return tree.PressDefault, err
			}
			return PressResultOf(v), nil
		}))
	}

	if e.Has(FuncOnNodeLongPress) {
		opts = append(opts, tree.WithOnNodeLongPress(func(ctx context.Context, ev tree.NodeEvent) error {
			_, err := e.Call(ctx, FuncOnNodeLongPress, eventArg(ev))
			return err
		}))
	}

	if e.Has(FuncIsNodeExpanded) {
		opts = append(opts, tree.WithExpansionPredicate(func(id any) bool {
			v, err := e.Call(context.Background(), FuncIsNodeExpanded, id)
			if err != nil {
				e.logger.Warn("isNodeExpanded failed", "error", err)
				return false
			}
			return v.ToBoolean()
		}))
	}

	if e.Has(FuncCollapsedHeight) {
		if idKey == "" {
			idKey = tree.DefaultIDKey
		}
		opts = append(opts, tree.WithCollapsedHeight(func(n tree.CollapsedNode) int {
			v, err := e.Call(context.Background(), FuncCollapsedHeight, map[string]any{
				idKey:   n.ID,
				"level": n.Level,
			})
			if err != nil {
				e.logger.Warn("getCollapsedNodeHeight failed", "error", err)
				return tree.DefaultCollapsedHeight
			}
			return int(v.ToInteger())
		}))
	}

	return opts
}
