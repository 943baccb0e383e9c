package services

import (
	"context"
	"testing"

	"iams/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectIDs 拍平森林收集全部节点ID
func collectIDs(tree []*MenuNode) []uint {
	ids := make([]uint, 0)
	stack := make([]*MenuNode, 0, len(tree))
	stack = append(stack, tree...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, node.ID)
		stack = append(stack, node.Children...)
	}
	return ids
}

func TestGetVisibleMenuTreeDeepLeaf(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	// 四层链：l1 → l2 → l3 → l4，只授权最深的叶子
	l1 := createMenu(t, db, "l1", "l1", 0, 1)
	l2 := createMenu(t, db, "l2", "l2", l1.ID, 1)
	l3 := createMenu(t, db, "l3", "l3", l2.ID, 1)
	l4 := createMenu(t, db, "l4", "l4", l3.ID, 1)

	user := createUser(t, db, "alice")
	role := createRole(t, db, "viewer", "查看者")
	grantMenuToUser(t, db, user.ID, role.ID, l4.ID)

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)

	// 祖先链完整补全，恰好4个节点且从根连通
	require.Len(t, tree, 1)
	assert.Equal(t, l1.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	leaf := tree[0].Children[0].Children[0].Children
	require.Len(t, leaf, 1)
	assert.Equal(t, l4.ID, leaf[0].ID)
	assert.Len(t, collectIDs(tree), 4)
}

func TestGetVisibleMenuTreeNoGrants(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	createMenu(t, db, "system", "系统管理", 0, 1)
	user := createUser(t, db, "bob")

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestGetVisibleMenuTreeExcludesSiblings(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	// system下有user和role两个子菜单，只授权user
	system := createMenu(t, db, "system", "系统管理", 0, 1)
	userMenu := createMenu(t, db, "system:user", "用户管理", system.ID, 1)
	createMenu(t, db, "system:role", "角色管理", system.ID, 2)

	user := createUser(t, db, "carol")
	role := createRole(t, db, "user_admin", "用户管理员")
	grantMenuToUser(t, db, user.ID, role.ID, userMenu.ID)

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, userMenu.ID, tree[0].Children[0].ID)
}

func TestGetVisibleMenuTreeDisabledGrant(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	system := createMenu(t, db, "system", "系统管理", 0, 1)
	disabled := createMenu(t, db, "system:legacy", "旧功能", system.ID, 1)
	require.NoError(t, db.Model(disabled).Update("status", models.StatusInactive).Error)

	user := createUser(t, db, "dave")
	role := createRole(t, db, "legacy", "遗留角色")
	grantMenuToUser(t, db, user.ID, role.ID, disabled.ID)

	// 默认排除禁用节点：没有任何可见授权
	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)
	assert.Empty(t, tree)

	// include_disabled 时禁用节点照常计入
	tree, err = svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{IncludeDisabled: true})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, disabled.ID, tree[0].Children[0].ID)
}

func TestGetVisibleMenuTreeIgnoresDisabledRole(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	menu := createMenu(t, db, "system", "系统管理", 0, 1)
	user := createUser(t, db, "erin")
	role := createRole(t, db, "suspended", "停用角色")
	grantMenuToUser(t, db, user.ID, role.ID, menu.ID)
	require.NoError(t, db.Model(role).Update("status", models.StatusInactive).Error)

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestGetVisibleMenuTreeMergesRoles(t *testing.T) {
	db, svc, _, _ := newTestServices(t)
	ctx := context.Background()

	system := createMenu(t, db, "system", "系统管理", 0, 1)
	userMenu := createMenu(t, db, "system:user", "用户管理", system.ID, 1)
	roleMenu := createMenu(t, db, "system:role", "角色管理", system.ID, 2)

	user := createUser(t, db, "frank")
	r1 := createRole(t, db, "r1", "角色一")
	r2 := createRole(t, db, "r2", "角色二")
	// 两个角色都授权了user菜单，合并后不重复
	grantMenuToUser(t, db, user.ID, r1.ID, userMenu.ID)
	grantMenuToUser(t, db, user.ID, r2.ID, userMenu.ID, roleMenu.ID)

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)

	ids := collectIDs(tree)
	assert.ElementsMatch(t, []uint{system.ID, userMenu.ID, roleMenu.ID}, ids)
}

func TestGetVisibleMenuTreeCachedPerOptions(t *testing.T) {
	db, svc, _, menuCache := newTestServices(t)
	ctx := context.Background()

	menu := createMenu(t, db, "system", "系统管理", 0, 1)
	user := createUser(t, db, "grace")
	role := createRole(t, db, "admin", "管理员")
	grantMenuToUser(t, db, user.ID, role.ID, menu.ID)

	tree, err := svc.GetVisibleMenuTree(ctx, user.ID, VisibleTreeOptions{})
	require.NoError(t, err)
	require.Len(t, tree, 1)

	// 默认选项组合已缓存
	_, found := menuCache.GetVisibleTree(ctx, user.ID, false, false)
	assert.True(t, found)
	// 其他选项组合互不串扰
	_, found = menuCache.GetVisibleTree(ctx, user.ID, true, false)
	assert.False(t, found)
}
