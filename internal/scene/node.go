package scene

import (
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// Node 场景节点
//
// 挂到场景之后，节点只能通过所属 Scene 的方法修改。
type Node struct {
	name     string
	scene    *Scene
	parent   *Node
	children []*Node
	subs     []types.EventSubscription
	hidden   bool
}

var _ interfaces.SceneNode = (*Node)(nil)

// NewNode 创建节点
func NewNode(name string, subs ...types.EventSubscription) *Node {
	return &Node{
		name: name,
		subs: append([]types.EventSubscription(nil), subs...),
	}
}

// Name 返回节点名称
func (n *Node) Name() string { return n.name }

// Parent 返回父节点，根节点返回 nil
func (n *Node) Parent() *Node { return n.parent }

// Children 返回子节点
func (n *Node) Children() []interfaces.SceneNode {
	out := make([]interfaces.SceneNode, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// EventSubscriptions 返回节点声明的订阅
func (n *Node) EventSubscriptions() []types.EventSubscription {
	return n.subs
}

// Hidden 返回节点是否隐藏
func (n *Node) Hidden() bool { return n.hidden }

// AddChild 在挂到场景之前组装子树
//
// 已挂到场景的节点请使用 Scene.Add。
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if n.scene != nil || child.scene != nil || child.parent != nil {
		return ErrNodeAttached
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// setScene 设置整棵子树的所属场景
func (n *Node) setScene(s *Scene) {
	n.scene = s
	for _, c := range n.children {
		c.setScene(s)
	}
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return
		}
	}
}
