package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartAccount(node *snowflake.Node, code string, level int, isGroup bool, parent *Account) *Account {
	account := &Account{
		ID:      node.Generate(),
		Code:    code,
		Name:    code,
		Type:    TypeAsset,
		IsGroup: isGroup,
		Level:   level,
	}
	if parent != nil {
		id := parent.ID
		account.ParentID = &id
	}
	return account
}

func TestBuildTree_AncestorsNearestFirst(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	root := chartAccount(node, "1000", 1, true, nil)
	ar := chartAccount(node, "1200", 2, true, root)
	leaf := chartAccount(node, "1200-7", 3, false, ar)

	tree, err := BuildTree([]*Account{root, ar, leaf})
	require.NoError(t, err)

	ancestors := tree.Ancestors(leaf.ID)
	require.Len(t, ancestors, 2)
	assert.Equal(t, ar.ID, ancestors[0].Account.ID)
	assert.Equal(t, root.ID, ancestors[1].Account.ID)

	assert.Empty(t, tree.Ancestors(root.ID))
	assert.Nil(t, tree.Node(node.Generate()))
}

func TestBuildTree_RejectsBadLevels(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	root := chartAccount(node, "1000", 2, true, nil)
	_, err := BuildTree([]*Account{root})
	assert.Error(t, err)

	root = chartAccount(node, "1000", 1, true, nil)
	child := chartAccount(node, "1010", 3, false, root)
	_, err = BuildTree([]*Account{root, child})
	assert.Error(t, err)
}

func TestBuildTree_RejectsMissingOrLeafParent(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	orphanParent := node.Generate()
	orphan := &Account{ID: node.Generate(), Code: "9000", Type: TypeAsset, Level: 2, ParentID: &orphanParent}
	_, err := BuildTree([]*Account{orphan})
	assert.Error(t, err)

	root := chartAccount(node, "1000", 1, false, nil) // leaf, not group
	child := chartAccount(node, "1010", 2, false, root)
	_, err = BuildTree([]*Account{root, child})
	assert.Error(t, err)
}

func TestTree_GroupsByDescendingLevelAndLeaves(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	assets := chartAccount(node, "1000", 1, true, nil)
	ar := chartAccount(node, "1200", 2, true, assets)
	cash := chartAccount(node, "1010", 2, false, assets)
	customer := chartAccount(node, "1200-1", 3, false, ar)

	tree, err := BuildTree([]*Account{assets, ar, cash, customer})
	require.NoError(t, err)

	groups := tree.GroupsByDescendingLevel()
	require.Len(t, groups, 2)
	assert.Equal(t, ar.ID, groups[0].Account.ID)
	assert.Equal(t, assets.ID, groups[1].Account.ID)

	leaves := tree.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, cash.ID, leaves[0].Account.ID)
	assert.Equal(t, customer.ID, leaves[1].Account.ID)
}
