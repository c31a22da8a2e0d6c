// Package deps provides dependency-graph business logic for the gv CLI.
// It builds blocker/dependent trees on top of the storage layer and
// renders them with box-drawing connectors.
package deps

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grovecli/grove/internal/types"
)

// graphStore is the slice of storage the tree builders need.
type graphStore interface {
	GetBud(ctx context.Context, id int64) (*types.Bud, error)
	GetDependencies(ctx context.Context, budID int64) ([]*types.Bud, error)
	GetDependents(ctx context.Context, budID int64) ([]*types.Bud, error)
}

// TreeNode is one rendered row of a dependency tree.
type TreeNode struct {
	ID        int64
	ParentID  int64 // the tree parent, not a containment parent
	Title     string
	Status    types.BudStatus
	Priority  types.Priority
	Depth     int
	Truncated bool
}

// BuildBlockerTree walks downward from root through the buds it depends
// on, to maxDepth. Nodes at the depth cap are marked truncated rather
// than expanded; revisited nodes repeat in the slice but render once.
func BuildBlockerTree(ctx context.Context, s graphStore, rootID int64, maxDepth int) ([]*TreeNode, error) {
	return buildTree(ctx, s, rootID, maxDepth, s.GetDependencies)
}

// BuildDependentTree walks upward from root through the buds that depend
// on it.
func BuildDependentTree(ctx context.Context, s graphStore, rootID int64, maxDepth int) ([]*TreeNode, error) {
	return buildTree(ctx, s, rootID, maxDepth, s.GetDependents)
}

func buildTree(ctx context.Context, s graphStore, rootID int64, maxDepth int, next func(context.Context, int64) ([]*types.Bud, error)) ([]*TreeNode, error) {
	root, err := s.GetBud(ctx, rootID)
	if err != nil {
		return nil, err
	}

	var tree []*TreeNode
	var walk func(b *types.Bud, parentID int64, depth int) error
	walk = func(b *types.Bud, parentID int64, depth int) error {
		node := &TreeNode{
			ID: b.ID, ParentID: parentID, Title: b.Title,
			Status: b.Status, Priority: b.Priority, Depth: depth,
		}
		tree = append(tree, node)
		neighbors, err := next(ctx, b.ID)
		if err != nil {
			return err
		}
		if depth >= maxDepth {
			node.Truncated = len(neighbors) > 0
			return nil
		}
		for _, n := range neighbors {
			if err := walk(n, b.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0, 0); err != nil {
		return nil, err
	}
	return tree, nil
}

// FilterTreeByStatus keeps only nodes with the given status plus the
// parent chain needed to hang them off the root.
func FilterTreeByStatus(tree []*TreeNode, status types.BudStatus) []*TreeNode {
	if len(tree) == 0 {
		return tree
	}

	matches := make(map[int64]bool)
	for _, node := range tree {
		if node.Status == status {
			matches[node.ID] = true
		}
	}
	if len(matches) == 0 {
		return []*TreeNode{}
	}

	parentOf := make(map[int64]int64)
	for _, node := range tree {
		if node.ParentID != 0 && node.ParentID != node.ID {
			parentOf[node.ID] = node.ParentID
		}
	}

	keep := make(map[int64]bool)
	for id := range matches {
		keep[id] = true
		current := id
		for {
			parent, ok := parentOf[current]
			if !ok || parent == current {
				break
			}
			keep[parent] = true
			current = parent
		}
	}

	var filtered []*TreeNode
	for _, node := range tree {
		if keep[node.ID] {
			filtered = append(filtered, node)
		}
	}
	return filtered
}

// StatusMarker returns a symbol indicator for a bud status.
func StatusMarker(status types.BudStatus) string {
	switch status {
	case types.StatusSeed:
		return "·" // ·
	case types.StatusDormant:
		return "☐" // ☐
	case types.StatusBudding:
		return "◧" // ◧
	case types.StatusBloomed:
		return "☑" // ☑
	case types.StatusMulch:
		return "☒" // ☒
	default:
		return "?"
	}
}

// FormatTreeNode formats one row: marker, id, title, priority, status.
// styleFunc renders the ID per status; actionableBadge renders the
// "[ACTIONABLE]" marker on unblocked roots.
func FormatTreeNode(node *TreeNode, styleFunc func(types.BudStatus, string) string, actionableBadge func(string) string, actionable bool) string {
	idStr := styleFunc(node.Status, fmt.Sprintf("gv-%d", node.ID))
	line := fmt.Sprintf("%s %s: %s [%s] (%s)",
		StatusMarker(node.Status), idStr, node.Title, node.Priority, node.Status)
	if actionable && node.Depth == 0 {
		line += " " + actionableBadge("[ACTIONABLE]")
	}
	return line
}

// TreeRenderer holds state for rendering a tree with box-drawing
// connectors. Styling callbacks keep terminal styling out of this
// package.
type TreeRenderer struct {
	seen             map[int64]bool
	activeConnectors []bool
	maxDepth         int

	MutedFunc       func(string) string
	WarnFunc        func(string) string
	StyleFunc       func(types.BudStatus, string) string
	ActionableBadge func(string) string
	// RootActionable marks the depth-0 node as free to work on.
	RootActionable bool
}

// NewTreeRenderer creates a renderer for trees up to maxDepth deep.
func NewTreeRenderer(maxDepth int) *TreeRenderer {
	return &TreeRenderer{
		seen:             make(map[int64]bool),
		activeConnectors: make([]bool, maxDepth+1),
		maxDepth:         maxDepth,
	}
}

// RenderTree writes the tree to w with proper connectors.
func (r *TreeRenderer) RenderTree(w io.Writer, tree []*TreeNode) {
	if len(tree) == 0 {
		return
	}

	children := make(map[int64][]*TreeNode)
	var root *TreeNode
	for _, node := range tree {
		if node.Depth == 0 {
			root = node
		} else {
			children[node.ParentID] = append(children[node.ParentID], node)
		}
	}
	if root == nil {
		root = tree[0]
	}
	r.renderNode(w, root, children, 0, true)
}

func (r *TreeRenderer) renderNode(w io.Writer, node *TreeNode, children map[int64][]*TreeNode, depth int, isLast bool) {
	if node == nil {
		return
	}

	var prefix strings.Builder
	for i := 0; i < depth; i++ {
		if r.activeConnectors[i] {
			prefix.WriteString("│   ") // │
		} else {
			prefix.WriteString("    ")
		}
	}
	if depth > 0 {
		if isLast {
			prefix.WriteString("└── ") // └──
		} else {
			prefix.WriteString("├── ") // ├──
		}
	}

	if r.seen[node.ID] {
		fmt.Fprintf(w, "%s%s\n", prefix.String(), r.muted(fmt.Sprintf("gv-%d (shown above)", node.ID)))
		return
	}
	r.seen[node.ID] = true

	line := FormatTreeNode(node, r.style, r.badge, r.RootActionable)
	if node.Truncated || (depth == r.maxDepth && len(children[node.ID]) > 0) {
		line += r.warn(" …") // …
	}
	fmt.Fprintf(w, "%s%s\n", prefix.String(), line)

	nodeChildren := children[node.ID]
	for i, child := range nodeChildren {
		if depth > 0 {
			r.activeConnectors[depth] = i < len(nodeChildren)-1
		}
		r.renderNode(w, child, children, depth+1, i == len(nodeChildren)-1)
	}
}

func (r *TreeRenderer) muted(s string) string {
	if r.MutedFunc != nil {
		return r.MutedFunc(s)
	}
	return s
}

func (r *TreeRenderer) warn(s string) string {
	if r.WarnFunc != nil {
		return r.WarnFunc(s)
	}
	return s
}

func (r *TreeRenderer) style(status types.BudStatus, s string) string {
	if r.StyleFunc != nil {
		return r.StyleFunc(status, s)
	}
	return s
}

func (r *TreeRenderer) badge(s string) string {
	if r.ActionableBadge != nil {
		return r.ActionableBadge(s)
	}
	return s
}
