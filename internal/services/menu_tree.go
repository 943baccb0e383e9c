package services

import (
	"iams/internal/models"
)

// MenuNode 菜单树节点（视图类型，不落库）
type MenuNode struct {
	ID        uint        `json:"id"`
	ParentID  uint        `json:"parent_id"`
	Name      string      `json:"name"`
	Code      string      `json:"code"`
	Path      string      `json:"path"`
	SortOrder int         `json:"sort_order"`
	Status    string      `json:"status"`
	Children  []*MenuNode `json:"children"`
}

// BuildMenuTree 将按 (parent_id, sort_order, id) 升序排好的节点列表组装为森林。
// parent_id为0或父节点不在输入集内的节点作为根节点，孤儿不丢弃，直接升级为根，
// 保证父节点缺失时子树依然可见。
func BuildMenuTree(permissions []*models.Permission) []*MenuNode {
	idToNode := make(map[uint]*MenuNode, len(permissions))
	ordered := make([]*MenuNode, 0, len(permissions))

	for _, p := range permissions {
		node := &MenuNode{
			ID:        p.ID,
			ParentID:  p.ParentID,
			Name:      p.Name,
			Code:      p.Code,
			Path:      p.Path,
			SortOrder: p.SortOrder,
			Status:    p.Status,
			Children:  []*MenuNode{},
		}
		idToNode[p.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*MenuNode, 0)
	for _, node := range ordered {
		if node.ParentID == 0 {
			roots = append(roots, node)
			continue
		}
		parent, ok := idToNode[node.ParentID]
		if ok {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	return roots
}

// WouldCycle 判断把节点挂到候选父节点下是否会产生环：候选父节点等于节点自身，
// 或候选父节点是该节点的子孙。childIDs返回指定节点的直接子节点ID，
// 遍历使用显式栈，深度不受调用栈限制；查询出错时按会成环处理（fail closed）。
func WouldCycle(nodeID, candidateParentID uint, childIDs func(uint) ([]uint, error)) (bool, error) {
	if candidateParentID == nodeID {
		return true, nil
	}
	if candidateParentID == 0 {
		return false, nil
	}

	stack := []uint{nodeID}
	visited := map[uint]bool{nodeID: true}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := childIDs(current)
		if err != nil {
			return true, err
		}
		for _, child := range children {
			if child == candidateParentID {
				return true, nil
			}
			if !visited[child] {
				visited[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false, nil
}

// PruneEmptyBranches 剪掉既没有子节点也不在保留集合内的节点。
// 自底向上迭代处理，直接授权的节点即使无子节点也不剪。
func PruneEmptyBranches(roots []*MenuNode, keep map[uint]bool) []*MenuNode {
	// 先做一次迭代后序遍历，保证子节点先于父节点处理
	type frame struct {
		node    *MenuNode
		visited bool
	}
	stack := make([]frame, 0, len(roots))
	for _, r := range roots {
		stack = append(stack, frame{node: r})
	}
	postOrder := make([]*MenuNode, 0)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.visited {
			postOrder = append(postOrder, top.node)
			continue
		}
		stack = append(stack, frame{node: top.node, visited: true})
		for _, child := range top.node.Children {
			stack = append(stack, frame{node: child})
		}
	}

	for _, node := range postOrder {
		kept := node.Children[:0]
		for _, child := range node.Children {
			if len(child.Children) > 0 || keep[child.ID] {
				kept = append(kept, child)
			}
		}
		node.Children = kept
	}

	prunedRoots := make([]*MenuNode, 0, len(roots))
	for _, r := range roots {
		if len(r.Children) > 0 || keep[r.ID] {
			prunedRoots = append(prunedRoots, r)
		}
	}
	return prunedRoots
}
