package hierarchy

import (
	"sort"
)

// Collect walks the whole tree and gathers leaf device names under
// every occurrence of each target category. A target may recur at
// several depths; all occurrences contribute. Keys listed in
// excludeSubtrees for a target skip their entire subtree. Each result
// list is deduplicated and sorted ascending.
//
// Malformed input never fails: a nil or non-object root returns an
// empty list for every target.
func Collect(root *Node, targets []string, excludeSubtrees map[string][]string) map[string][]string {
	out := make(map[string][]string, len(targets))
	for _, t := range targets {
		out[t] = []string{}
	}

	if root.kind() != KindObject {
		return out
	}

	targetSet := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		targetSet[t] = struct{}{}
	}
	excluded := make(map[string]map[string]struct{}, len(excludeSubtrees))
	for target, keys := range excludeSubtrees {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		excluded[target] = set
	}

	acc := make(map[string][]string, len(targets))

	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.kind() {
		case KindObject:
			for key, value := range n.Object {
				if isMetadataKey(key) {
					continue
				}
				if _, ok := targetSet[key]; ok {
					leaves := collectLeaves(value, excluded[key])
					if value.kind() == KindNull {
						// A target with no children is itself a leaf.
						leaves = append(leaves, key)
					}
					acc[key] = append(acc[key], leaves...)
				}
				// Independent targets may nest inside one another, so
				// the walk continues past a match.
				if k := value.kind(); k == KindObject || k == KindArray {
					walk(value)
				}
			}
		case KindArray:
			for _, item := range n.Items {
				walk(item)
			}
		}
	}
	walk(root)

	for target, leaves := range acc {
		out[target] = dedupeSorted(leaves)
	}
	return out
}

// collectLeaves yields leaf device names under a node. A leaf is an
// object entry whose value is null, a string inside an array, or a
// null inside an array (then the enclosing key is the name).
func collectLeaves(n *Node, excluded map[string]struct{}) []string {
	var leaves []string

	var fromObject func(obj map[string]*Node)
	var fromList func(items []*Node, parentKey string)

	fromObject = func(obj map[string]*Node) {
		for key, value := range obj {
			if isMetadataKey(key) {
				continue
			}
			if _, skip := excluded[key]; skip {
				continue
			}
			switch value.kind() {
			case KindNull:
				leaves = append(leaves, key)
			case KindObject:
				fromObject(value.Object)
			case KindArray:
				fromList(value.Items, key)
			}
		}
	}

	fromList = func(items []*Node, parentKey string) {
		for _, item := range items {
			switch item.kind() {
			case KindObject:
				fromObject(item.Object)
			case KindString:
				leaves = append(leaves, item.Str)
			case KindNull:
				if parentKey != "" {
					leaves = append(leaves, parentKey)
				}
			}
		}
	}

	switch n.kind() {
	case KindObject:
		fromObject(n.Object)
	case KindArray:
		fromList(n.Items, "")
	}
	return leaves
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Strings(unique)
	return unique
}
