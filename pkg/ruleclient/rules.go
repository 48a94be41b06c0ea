package ruleclient

import (
	"context"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

type evaluateRequest struct {
	Rule string         `json:"rule"`
	Data map[string]any `json:"data"`
}

type createRuleRequest struct {
	Rule string `json:"rule"`
}

// Evaluate evaluates rule against data on the service. The body always
// carries a data object; nil data is sent as {}.
func (c *Client) Evaluate(ctx context.Context, rule string, data map[string]any) ([]Result, error) {
	if err := errors.ValidateRule(rule); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	env, err := c.post(ctx, pathEvaluate, evaluateRequest{Rule: rule, Data: data})
	if err != nil {
		return nil, err
	}
	return env.results(data)
}

// CreateRule compiles rule to its AST. Successful compilations are cached;
// a cached AST is returned without contacting the service.
func (c *Client) CreateRule(ctx context.Context, rule string) (*tree.Node, error) {
	root, _, err := c.CreateRuleWithCacheInfo(ctx, rule)
	return root, err
}

// CreateRuleWithCacheInfo is [Client.CreateRule] that also reports whether
// the AST came from the cache.
func (c *Client) CreateRuleWithCacheInfo(ctx context.Context, rule string) (*tree.Node, bool, error) {
	if err := errors.ValidateRule(rule); err != nil {
		return nil, false, err
	}

	key := c.keyer.ASTKey(rule)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		if root, err := tree.Parse(data); err == nil {
			return root, true, nil
		}
		// Unreadable entry, fall through and refresh it
	}

	env, err := c.post(ctx, pathCreateRule, createRuleRequest{Rule: rule})
	if err != nil {
		return nil, false, err
	}
	root, err := env.tree()
	if err != nil {
		return nil, false, err
	}

	// Trees beyond the default depth bound are returned but never cached.
	if err := tree.Validate(root, tree.DefaultMaxDepth); err != nil {
		c.logger.Debug("not caching invalid ast", "err", err)
		return root, false, nil
	}
	if data, err := tree.Marshal(root); err == nil {
		if err := c.cache.Set(ctx, key, data, c.astTTL); err != nil {
			c.logger.Warn("cache write failed", "err", err)
		}
	}
	return root, false, nil
}
