package cache

import "strings"

// Keyer generates cache keys. Implementations must be deterministic: equal
// inputs always produce equal keys.
type Keyer interface {
	// ASTKey addresses the compiled AST of a rule.
	ASTKey(rule string) string
	// LayoutKey addresses a layout of the tree with the given hash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts holds the parameters that change a layout.
type LayoutKeyOpts struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	MaxDepth int     `json:"max_depth"`
}

// DefaultKeyer produces "ast:<sha256>" and "layout:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ASTKey hashes the rule with surrounding whitespace removed, so rules that
// differ only in leading or trailing blanks share an entry.
func (DefaultKeyer) ASTKey(rule string) string {
	return hashKey("ast", strings.TrimSpace(rule))
}

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}
