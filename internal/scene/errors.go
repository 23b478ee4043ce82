package scene

import "errors"

var (
	// ErrNilNode 节点为 nil
	ErrNilNode = errors.New("scene: nil node")

	// ErrNilScene 场景为 nil
	ErrNilScene = errors.New("scene: nil scene")

	// ErrNodeAttached 节点已属于某个场景
	ErrNodeAttached = errors.New("scene: node already attached")

	// ErrCycle 子节点是父节点的祖先
	ErrCycle = errors.New("scene: node would become its own ancestor")

	// ErrNodeNotInScene 节点不属于该场景
	ErrNodeNotInScene = errors.New("scene: node not in scene")

	// ErrSceneOnStack 场景已在场景栈中
	ErrSceneOnStack = errors.New("scene: scene already on stack")

	// ErrEmptyStack 场景栈为空
	ErrEmptyStack = errors.New("scene: stack is empty")
)
