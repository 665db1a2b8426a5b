package tree

import (
	"context"
	"io"
	"log/slog"
)

// Default configuration values.
const (
	DefaultIDKey           = "id"
	DefaultChildrenKey     = "children"
	DefaultCollapsedHeight = 20
)

// NodeProps is handed to the render function for every visible node.
type NodeProps struct {
	Item             Node
	Level            int
	IsExpanded       bool
	HasChildrenNodes bool
}

// NodeEvent describes a press on a node.
type NodeEvent struct {
	Item  Node
	Level int
}

// CollapsedNode identifies the node whose collapsed height is requested.
type CollapsedNode struct {
	ID    any
	Level int
}

// PressResult is what a press hook resolves to.
type PressResult int

const (
	// PressDefault expresses no preference; expandable nodes toggle.
	PressDefault PressResult = iota
	// PressAllow explicitly lets the toggle proceed.
	PressAllow
	// PressVeto stops the automatic toggle.
	PressVeto
)

// String returns the string representation of the result.
func (r PressResult) String() string {
	switch r {
	case PressDefault:
		return "default"
	case PressAllow:
		return "allow"
	case PressVeto:
		return "veto"
	default:
		return "unknown"
	}
}

// RenderFunc produces the visual content of a node.
type RenderFunc func(props NodeProps) string

// PressHook is awaited before a press toggles a node.
type PressHook func(ctx context.Context, ev NodeEvent) (PressResult, error)

// LongPressHook handles a long press. It never toggles.
type LongPressHook func(ctx context.Context, ev NodeEvent) error

// CollapsedHeightFunc returns the height of a collapsed node's container.
type CollapsedHeightFunc func(node CollapsedNode) int

// Config holds tree configuration. Zero values are replaced by defaults
// in DefaultConfig.
type Config struct {
	RenderNode      RenderFunc
	InitialExpanded bool
	CollapsedHeight CollapsedHeightFunc
	IDKey           string
	ChildrenKey     string
	OnNodePress     PressHook
	OnNodeLongPress LongPressHook
	// IsNodeExpanded, when set, makes expansion externally controlled.
	IsNodeExpanded func(id any) bool
	// InitialState seeds the internal mapping, e.g. from a saved session.
	InitialState map[string]bool
	Logger       *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CollapsedHeight: func(CollapsedNode) int { return DefaultCollapsedHeight },
		IDKey:           DefaultIDKey,
		ChildrenKey:     DefaultChildrenKey,
		OnNodePress:     noopPress,
		OnNodeLongPress: noopLongPress,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func noopPress(context.Context, NodeEvent) (PressResult, error) {
	return PressDefault, nil
}

func noopLongPress(context.Context, NodeEvent) error {
	return nil
}

// Option is a function that configures the tree.
type Option func(*Config)

// WithInitialExpanded sets the state reported for unseen identities.
func WithInitialExpanded(expanded bool) Option {
	return func(c *Config) {
		c.InitialExpanded = expanded
	}
}

// WithCollapsedHeight sets the collapsed container height function.
func WithCollapsedHeight(fn CollapsedHeightFunc) Option {
	return func(c *Config) {
		if fn != nil {
			c.CollapsedHeight = fn
		}
	}
}

// WithIDKey sets the field used as node identity.
func WithIDKey(key string) Option {
	return func(c *Config) {
		if key != "" {
			c.IDKey = key
		}
	}
}

// WithChildrenKey sets the field used as the child sequence.
func WithChildrenKey(key string) Option {
	return func(c *Config) {
		if key != "" {
			c.ChildrenKey = key
		}
	}
}

// WithOnNodePress sets the press hook.
func WithOnNodePress(hook PressHook) Option {
	return func(c *Config) {
		if hook != nil {
			c.OnNodePress = hook
		}
	}
}

// WithOnNodeLongPress sets the long-press hook.
func WithOnNodeLongPress(hook LongPressHook) Option {
	return func(c *Config) {
		if hook != nil {
			c.OnNodeLongPress = hook
		}
	}
}

// WithExpansionPredicate hands expansion control to the caller.
func WithExpansionPredicate(fn func(id any) bool) Option {
	return func(c *Config) {
		c.IsNodeExpanded = fn
	}
}

// WithInitialState seeds the internal expansion mapping.
func WithInitialState(state map[string]bool) Option {
	return func(c *Config) {
		c.InitialState = state
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// NewOracle builds the oracle matching the configuration.
func NewOracle(cfg Config) ExpansionOracle {
	if cfg.IsNodeExpanded != nil {
		return NewExternal(cfg.IsNodeExpanded)
	}
	o := NewInternal(cfg.InitialExpanded)
	if len(cfg.InitialState) > 0 {
		o.Restore(cfg.InitialState)
	}
	return o
}
