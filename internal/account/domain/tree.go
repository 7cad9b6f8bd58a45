package domain

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Node is one account in the in-memory chart-of-accounts index.
type Node struct {
	Account  *Account
	Parent   *Node
	Children []*Node
}

// Tree indexes the chart of accounts so propagation can walk the parent chain
// of one affected account instead of rescanning the whole table.
type Tree struct {
	nodes map[snowflake.ID]*Node
	roots []*Node
}

// BuildTree links accounts into a Tree, verifying parent references and the
// level invariant (child.Level == parent.Level + 1, roots at level 1).
func BuildTree(accounts []*Account) (*Tree, error) {
	t := &Tree{nodes: make(map[snowflake.ID]*Node, len(accounts))}
	for _, acc := range accounts {
		if _, dup := t.nodes[acc.ID]; dup {
			return nil, fmt.Errorf("duplicate account id %s", acc.ID)
		}
		t.nodes[acc.ID] = &Node{Account: acc}
	}
	for _, node := range t.nodes {
		acc := node.Account
		if acc.ParentID == nil {
			if acc.Level != 1 {
				return nil, fmt.Errorf("root account %s has level %d", acc.Code, acc.Level)
			}
			t.roots = append(t.roots, node)
			continue
		}
		parent, ok := t.nodes[*acc.ParentID]
		if !ok {
			return nil, fmt.Errorf("account %s references missing parent %s", acc.Code, *acc.ParentID)
		}
		if !parent.Account.IsGroup {
			return nil, fmt.Errorf("account %s has non-group parent %s", acc.Code, parent.Account.Code)
		}
		if acc.Level != parent.Account.Level+1 {
			return nil, fmt.Errorf("account %s has level %d under parent level %d", acc.Code, acc.Level, parent.Account.Level)
		}
		node.Parent = parent
		parent.Children = append(parent.Children, node)
	}
	return t, nil
}

// Node returns the node for id, or nil when absent.
func (t *Tree) Node(id snowflake.ID) *Node {
	return t.nodes[id]
}

// Ancestors returns the group accounts above id, nearest first.
func (t *Tree) Ancestors(id snowflake.ID) []*Node {
	node := t.nodes[id]
	if node == nil {
		return nil
	}
	var out []*Node
	for p := node.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// GroupsByDescendingLevel returns all group nodes ordered deepest first,
// the order a full rebuild must aggregate in.
func (t *Tree) GroupsByDescendingLevel() []*Node {
	var groups []*Node
	for _, node := range t.nodes {
		if node.Account.IsGroup {
			groups = append(groups, node)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Account.Level != groups[j].Account.Level {
			return groups[i].Account.Level > groups[j].Account.Level
		}
		return groups[i].Account.Code < groups[j].Account.Code
	})
	return groups
}

// Leaves returns all posting-eligible nodes.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	for _, node := range t.nodes {
		if !node.Account.IsGroup {
			leaves = append(leaves, node)
		}
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].Account.Code < leaves[j].Account.Code
	})
	return leaves
}
