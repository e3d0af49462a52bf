package ogm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/resolver"
)

// CreateNode creates a node for a registered model. The fields are deflated
// first, so an unstorable value fails before anything reaches the network.
func (c *Client) CreateNode(ctx context.Context, labels []string, fields map[string]any) (*resolver.Entity, error) {
	if c.conn == nil {
		return nil, ErrClientNotInitialized
	}
	if _, ok := c.registry.ResolveLabels(labels); !ok {
		return nil, &resolver.ModelResolveError{Labels: labels}
	}

	props, err := c.codec.Deflate(fields)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("CREATE (n%s) SET n = $props RETURN n", labelExpr(labels))
	res, err := c.Cypher(ctx, query, map[string]any{"props": props})
	if err != nil {
		return nil, err
	}
	return singleEntity(res)
}

// FindNodes matches nodes of a registered model whose properties equal the
// given filters. Filter values are deflated under the same storability rules
// as writes.
func (c *Client) FindNodes(ctx context.Context, labels []string, filters map[string]any) ([]*resolver.Entity, error) {
	if c.conn == nil {
		return nil, ErrClientNotInitialized
	}
	if _, ok := c.registry.ResolveLabels(labels); !ok {
		return nil, &resolver.ModelResolveError{Labels: labels}
	}

	deflated, err := c.codec.Deflate(filters)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MATCH (n%s)", labelExpr(labels))
	params := make(map[string]any, len(deflated))
	if len(deflated) > 0 {
		names := make([]string, 0, len(deflated))
		for name := range deflated {
			names = append(names, name)
		}
		sort.Strings(names)
		clauses := make([]string, len(names))
		for i, name := range names {
			param := fmt.Sprintf("f%d", i)
			clauses[i] = fmt.Sprintf("n.`%s` = $%s", escapeIdent(name), param)
			params[param] = deflated[name]
		}
		fmt.Fprintf(&sb, " WHERE %s", strings.Join(clauses, " AND "))
	}
	sb.WriteString(" RETURN n")

	res, err := c.Cypher(ctx, sb.String(), params)
	if err != nil {
		return nil, err
	}

	entities := make([]*resolver.Entity, 0, len(res.Rows))
	for _, row := range res.Rows {
		entity, ok := row[0].(*resolver.Entity)
		if !ok {
			return nil, fmt.Errorf("expected a resolved entity, got %T", row[0])
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// CreateRelationship connects two nodes by element identifier with a
// relationship of a registered model.
func (c *Client) CreateRelationship(ctx context.Context, relType, startElementID, endElementID string, fields map[string]any) (*resolver.Entity, error) {
	if c.conn == nil {
		return nil, ErrClientNotInitialized
	}
	if _, ok := c.registry.ResolveType(relType); !ok {
		return nil, &resolver.ModelResolveError{Type: relType}
	}

	props, err := c.codec.Deflate(fields)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		MATCH (a), (b)
		WHERE elementId(a) = $start AND elementId(b) = $end
		CREATE (a)-[r:`+"`%s`"+`]->(b)
		SET r = $props
		RETURN a, b, r
	`, escapeIdent(relType))
	res, err := c.Cypher(ctx, query, map[string]any{
		"start": startElementID,
		"end":   endElementID,
		"props": props,
	})
	if err != nil {
		return nil, err
	}
	// The endpoints resolve before the relationship, so its weak start/end
	// references are populated from the call cache.
	if len(res.Rows) == 0 || len(res.Rows[0]) < 3 {
		return nil, fmt.Errorf("query returned no rows")
	}
	entity, ok := res.Rows[0][2].(*resolver.Entity)
	if !ok {
		return nil, fmt.Errorf("expected a resolved relationship, got %T", res.Rows[0][2])
	}
	return entity, nil
}

func singleEntity(res *Result) (*resolver.Entity, error) {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return nil, fmt.Errorf("query returned no rows")
	}
	entity, ok := res.Rows[0][0].(*resolver.Entity)
	if !ok {
		return nil, fmt.Errorf("expected a resolved entity, got %T", res.Rows[0][0])
	}
	return entity, nil
}

// labelExpr renders a label set as `:`+backtick-quoted labels.
func labelExpr(labels []string) string {
	var sb strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&sb, ":`%s`", escapeIdent(l))
	}
	return sb.String()
}

// escapeIdent doubles backticks so user-supplied labels and types cannot
// break out of a quoted identifier.
func escapeIdent(s string) string {
	return strings.ReplaceAll(s, "`", "``")
}
