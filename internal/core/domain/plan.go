package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery       = errors.New("empty query")
	ErrMultiStatement   = errors.New("multiple statements are not allowed")
	ErrParseFailed      = errors.New("failed to parse SQL")
	ErrUnsupportedQuery = errors.New("unsupported query shape")
)

// Plan is an operator plan translated from a SELECT statement. Exactly one
// of the request fields is set.
type Plan struct {
	Filter    *FilterRequest
	Join      *JoinRequest
	Aggregate *AggregateRequest
}

// PlanFromSQL translates a single SELECT statement into an operator plan
// using PostgreSQL's actual parser. Supported shapes: a scan over one table
// with an optional WHERE (filter), a two-table equality JOIN (nested-loop
// join), and a grouped SELECT with aggregate functions (aggregate).
// Anything else fails with ErrUnsupportedQuery.
//
// Note that unquoted SQL identifiers arrive lowercased; callers matching
// against mixed-case collection names should canonicalize afterwards.
func PlanFromSQL(sql string) (*Plan, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if len(tree.Stmts) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(tree.Stmts) > 1 {
		return nil, ErrMultiStatement
	}

	sel := tree.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return nil, fmt.Errorf("%w: only SELECT statements can be estimated", ErrUnsupportedQuery)
	}

	outputKeys, aggKey, hasAgg, err := extractTargets(sel.TargetList)
	if err != nil {
		return nil, err
	}

	groupKeys, err := extractGroupKeys(sel.GroupClause)
	if err != nil {
		return nil, err
	}

	filterKey := extractFilterKey(sel.WhereClause)

	if len(sel.FromClause) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one FROM item", ErrUnsupportedQuery)
	}
	from := sel.FromClause[0]

	if join := from.GetJoinExpr(); join != nil {
		if len(groupKeys) > 0 || hasAgg {
			return nil, fmt.Errorf("%w: JOIN combined with GROUP BY", ErrUnsupportedQuery)
		}
		return planJoin(join, outputKeys)
	}

	rv := from.GetRangeVar()
	if rv == nil {
		return nil, fmt.Errorf("%w: expected a plain table in FROM", ErrUnsupportedQuery)
	}
	collection := rv.Relname

	if len(groupKeys) > 0 || hasAgg {
		return &Plan{Aggregate: &AggregateRequest{
			Collection: collection,
			GroupKeys:  groupKeys,
			AggKey:     aggKey,
			OutputKeys: outputKeys,
			FilterKey:  filterKey,
		}}, nil
	}

	return &Plan{Filter: &FilterRequest{
		Collection: collection,
		OutputKeys: outputKeys,
		FilterKey:  filterKey,
	}}, nil
}

func planJoin(join *pg_query.JoinExpr, outputKeys []string) (*Plan, error) {
	left := join.Larg.GetRangeVar()
	right := join.Rarg.GetRangeVar()
	if left == nil || right == nil {
		return nil, fmt.Errorf("%w: only two-table joins are supported", ErrUnsupportedQuery)
	}

	joinKey := ""
	if expr := join.Quals.GetAExpr(); expr != nil {
		joinKey = columnName(expr.Lexpr)
	}
	if joinKey == "" {
		return nil, fmt.Errorf("%w: join condition must be a column equality", ErrUnsupportedQuery)
	}

	return &Plan{Join: &JoinRequest{
		Left:       left.Relname,
		Right:      right.Relname,
		JoinKey:    joinKey,
		OutputKeys: outputKeys,
	}}, nil
}

func extractTargets(targets []*pg_query.Node) (outputKeys []string, aggKey string, hasAgg bool, err error) {
	for _, t := range targets {
		res := t.GetResTarget()
		if res == nil {
			continue
		}

		if col := columnName(res.Val); col != "" {
			outputKeys = append(outputKeys, col)
			continue
		}

		if fn := res.Val.GetFuncCall(); fn != nil {
			hasAgg = true
			if len(fn.Args) > 0 {
				if col := columnName(fn.Args[0]); col != "" {
					aggKey = col
					outputKeys = append(outputKeys, col)
				}
			}
			continue
		}

		if res.Val.GetColumnRef() != nil {
			// SELECT * — project everything the schema declares.
			continue
		}

		return nil, "", false, fmt.Errorf("%w: unsupported select target", ErrUnsupportedQuery)
	}
	return outputKeys, aggKey, hasAgg, nil
}

func extractGroupKeys(group []*pg_query.Node) ([]string, error) {
	var keys []string
	for _, g := range group {
		col := columnName(g)
		if col == "" {
			return nil, fmt.Errorf("%w: GROUP BY must name plain columns", ErrUnsupportedQuery)
		}
		keys = append(keys, col)
	}
	return keys, nil
}

// extractFilterKey pulls the column out of a simple comparison in WHERE.
// Unrecognized predicates yield no filter key; the default selectivity still
// applies downstream.
func extractFilterKey(where *pg_query.Node) string {
	if where == nil {
		return ""
	}
	if expr := where.GetAExpr(); expr != nil {
		if col := columnName(expr.Lexpr); col != "" {
			return col
		}
		return columnName(expr.Rexpr)
	}
	return ""
}

// columnName returns the unqualified column behind a ColumnRef node, or ""
// when the node is not a plain column (function calls, stars, constants).
func columnName(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	ref := node.GetColumnRef()
	if ref == nil {
		return ""
	}
	name := ""
	for _, f := range ref.Fields {
		if s := f.GetString_(); s != nil {
			name = s.Sval // keep the last segment: table.column -> column
		}
	}
	return name
}
