package services

import (
	"fmt"
	"testing"

	"iams/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuRow(id, parentID uint, code string, sortOrder int) *models.Permission {
	p := &models.Permission{
		Code:      code,
		Name:      code,
		Type:      models.PermissionTypeMenu,
		ParentID:  parentID,
		SortOrder: sortOrder,
		Status:    models.StatusActive,
	}
	p.ID = id
	return p
}

func TestBuildMenuTree(t *testing.T) {
	// 目录：
	//   1 系统管理
	//     2 用户管理
	//     3 角色管理
	//   4 监控
	rows := []*models.Permission{
		menuRow(1, 0, "system", 1),
		menuRow(2, 1, "system:user", 1),
		menuRow(3, 1, "system:role", 2),
		menuRow(4, 0, "monitor", 2),
	}

	tree := BuildMenuTree(rows)

	require.Len(t, tree, 2)
	assert.Equal(t, uint(1), tree[0].ID)
	assert.Equal(t, uint(4), tree[1].ID)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "system:user", tree[0].Children[0].Code)
	assert.Equal(t, "system:role", tree[0].Children[1].Code)
	assert.Empty(t, tree[1].Children)
}

func TestBuildMenuTreeKeepsSortOrderWithinSiblings(t *testing.T) {
	// 输入已按 (parent_id, sort_order, id) 排序，兄弟顺序必须原样保留
	rows := []*models.Permission{
		menuRow(1, 0, "root", 1),
		menuRow(3, 1, "b", 1),
		menuRow(2, 1, "a", 2),
		menuRow(4, 1, "c", 3),
	}

	tree := BuildMenuTree(rows)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 3)
	assert.Equal(t, []uint{3, 2, 4}, []uint{
		tree[0].Children[0].ID,
		tree[0].Children[1].ID,
		tree[0].Children[2].ID,
	})
}

func TestBuildMenuTreeOrphanBecomesRoot(t *testing.T) {
	// 父节点99不在输入集内，孤儿升级为根而不是丢弃
	rows := []*models.Permission{
		menuRow(1, 0, "root", 1),
		menuRow(2, 99, "orphan", 1),
	}

	tree := BuildMenuTree(rows)

	require.Len(t, tree, 2)
	assert.Equal(t, "orphan", tree[1].Code)
}

func TestBuildMenuTreeNoDuplicates(t *testing.T) {
	// 多层目录组装后每个节点只能出现一次
	rows := []*models.Permission{
		menuRow(1, 0, "l1", 1),
		menuRow(2, 1, "l2", 1),
		menuRow(3, 2, "l3", 1),
		menuRow(4, 2, "l3b", 2),
		menuRow(5, 0, "r2", 2),
	}

	tree := BuildMenuTree(rows)

	seen := map[uint]int{}
	stack := make([]*MenuNode, 0, len(tree))
	stack = append(stack, tree...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[node.ID]++
		stack = append(stack, node.Children...)
	}

	require.Len(t, seen, 5)
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %d appears %d times", id, count)
	}
}

func TestBuildMenuTreeEmptyInput(t *testing.T) {
	tree := BuildMenuTree(nil)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestWouldCycleSelfParent(t *testing.T) {
	cycle, err := WouldCycle(7, 7, func(uint) ([]uint, error) {
		t.Fatal("self parent should not need child lookups")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cycle)
}

func TestWouldCycleMoveToRoot(t *testing.T) {
	cycle, err := WouldCycle(7, 0, func(uint) ([]uint, error) {
		t.Fatal("move to root should not need child lookups")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestWouldCycleDescendantChain(t *testing.T) {
	// 链：1 → 2 → 3 → 4
	children := map[uint][]uint{
		1: {2},
		2: {3},
		3: {4},
	}
	lookup := func(id uint) ([]uint, error) {
		return children[id], nil
	}

	// 把1挂到4下：4是1的子孙，成环
	cycle, err := WouldCycle(1, 4, lookup)
	require.NoError(t, err)
	assert.True(t, cycle)

	// 把4挂到1下：方向合法
	cycle, err = WouldCycle(4, 1, lookup)
	require.NoError(t, err)
	assert.False(t, cycle)

	// 挂回当前父节点不成环
	cycle, err = WouldCycle(3, 2, lookup)
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestWouldCycleSiblingMove(t *testing.T) {
	// 1下有两个子树：2和3
	children := map[uint][]uint{
		1: {2, 3},
	}
	lookup := func(id uint) ([]uint, error) {
		return children[id], nil
	}

	cycle, err := WouldCycle(2, 3, lookup)
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestWouldCycleFailClosed(t *testing.T) {
	lookup := func(uint) ([]uint, error) {
		return nil, fmt.Errorf("lookup failed")
	}

	cycle, err := WouldCycle(1, 2, lookup)
	assert.Error(t, err)
	assert.True(t, cycle)
}

func TestPruneEmptyBranches(t *testing.T) {
	// 目录：
	//   1
	//     2 (直接授权)
	//     3 (空分支)
	//   4 (空根)
	node2 := &MenuNode{ID: 2, Children: []*MenuNode{}}
	node3 := &MenuNode{ID: 3, Children: []*MenuNode{}}
	node1 := &MenuNode{ID: 1, Children: []*MenuNode{node2, node3}}
	node4 := &MenuNode{ID: 4, Children: []*MenuNode{}}

	pruned := PruneEmptyBranches([]*MenuNode{node1, node4}, map[uint]bool{2: true})

	require.Len(t, pruned, 1)
	assert.Equal(t, uint(1), pruned[0].ID)
	require.Len(t, pruned[0].Children, 1)
	assert.Equal(t, uint(2), pruned[0].Children[0].ID)
}

func TestPruneEmptyBranchesCascades(t *testing.T) {
	// 1 → 2 → 3，只有1直接授权：3被剪后2也变空，整条链只剩1
	node3 := &MenuNode{ID: 3, Children: []*MenuNode{}}
	node2 := &MenuNode{ID: 2, Children: []*MenuNode{node3}}
	node1 := &MenuNode{ID: 1, Children: []*MenuNode{node2}}

	pruned := PruneEmptyBranches([]*MenuNode{node1}, map[uint]bool{1: true})

	require.Len(t, pruned, 1)
	assert.Equal(t, uint(1), pruned[0].ID)
	assert.Empty(t, pruned[0].Children)
}
