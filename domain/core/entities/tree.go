package entities

import "encoding/json"

// NodeType distinguishes directories from leaf files in the knowledge tree
type NodeType string

const (
	NodeTypeCategory NodeType = "category"
	NodeTypeFile     NodeType = "file"
)

// TreeNode mirrors one entry of the knowledge directory tree.
// Categories carry Children, files carry KnowledgeItems.
type TreeNode struct {
	Type           NodeType
	Name           string
	Path           string
	Children       []*TreeNode
	KnowledgeItems []*KnowledgeItem
}

// NewCategoryNode creates an empty category node
func NewCategoryNode(name, path string) *TreeNode {
	return &TreeNode{
		Type:     NodeTypeCategory,
		Name:     name,
		Path:     path,
		Children: []*TreeNode{},
	}
}

// NewFileNode creates a file node holding the given items
func NewFileNode(name, path string, items []*KnowledgeItem) *TreeNode {
	if items == nil {
		items = []*KnowledgeItem{}
	}
	return &TreeNode{
		Type:           NodeTypeFile,
		Name:           name,
		Path:           path,
		KnowledgeItems: items,
	}
}

// IsFile reports whether the node is a leaf file
func (n *TreeNode) IsFile() bool {
	return n.Type == NodeTypeFile
}

// Find returns the descendant with the given path, or nil
func (n *TreeNode) Find(path string) *TreeNode {
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// CountItems returns the number of items in this subtree
func (n *TreeNode) CountItems() int {
	if n.IsFile() {
		return len(n.KnowledgeItems)
	}
	total := 0
	for _, child := range n.Children {
		total += child.CountItems()
	}
	return total
}

type categoryJSON struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children"`
}

type fileJSON struct {
	Type           NodeType         `json:"type"`
	Name           string           `json:"name"`
	Path           string           `json:"path"`
	KnowledgeItems []*KnowledgeItem `json:"knowledgeItems"`
}

// MarshalJSON renders categories as {name,path,children} and files as
// {type:"file",name,path,knowledgeItems}
func (n *TreeNode) MarshalJSON() ([]byte, error) {
	if n.IsFile() {
		items := n.KnowledgeItems
		if items == nil {
			items = []*KnowledgeItem{}
		}
		return json.Marshal(fileJSON{Type: NodeTypeFile, Name: n.Name, Path: n.Path, KnowledgeItems: items})
	}
	children := n.Children
	if children == nil {
		children = []*TreeNode{}
	}
	return json.Marshal(categoryJSON{Name: n.Name, Path: n.Path, Children: children})
}

// UnmarshalJSON accepts either shape
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type           NodeType         `json:"type"`
		Name           string           `json:"name"`
		Path           string           `json:"path"`
		Children       []*TreeNode      `json:"children"`
		KnowledgeItems []*KnowledgeItem `json:"knowledgeItems"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Type == NodeTypeFile {
		*n = *NewFileNode(probe.Name, probe.Path, probe.KnowledgeItems)
		return nil
	}
	*n = *NewCategoryNode(probe.Name, probe.Path)
	if probe.Children != nil {
		n.Children = probe.Children
	}
	return nil
}
