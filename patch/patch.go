// Package patch describes slide repairs as declarative operations on the
// element map, in the manner of JSON Patch, so they can be logged,
// reviewed and replayed.
package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// Operation names.
const (
	OpAdd     = "add"
	OpReplace = "replace"
	OpRemove  = "remove"
)

const elementsRoot = "/elements/"

// Op is one operation.
type Op struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Patch is a named group of operations.
type Patch struct {
	PatchID     string `json:"patch_id"`
	Description string `json:"description"`
	Operations  []Op   `json:"patch"`
}

// ElementPath returns the path of an element key.
func ElementPath(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	key = strings.ReplaceAll(key, "/", "~1")
	return elementsRoot + key
}

// Replace builds an operation setting key to el.
func Replace(key string, el model.Element) (Op, error) {
	raw, err := model.EncodeElement(el)
	if err != nil {
		return Op{}, fmt.Errorf("encoding %s: %w", key, err)
	}
	return Op{Op: OpReplace, Path: ElementPath(key), Value: raw}, nil
}

// Remove builds an operation deleting key.
func Remove(key string) Op {
	return Op{Op: OpRemove, Path: ElementPath(key)}
}

// Apply replays patches in order on elements. Operations set or delete
// whole elements, so applying the same patches twice gives the same map.
// Removing an absent key is not an error.
func Apply(elements *model.Elements, patches ...Patch) error {
	for _, p := range patches {
		for i, op := range p.Operations {
			if err := applyOp(elements, op); err != nil {
				return fmt.Errorf("patch %s op %d: %w", p.PatchID, i, err)
			}
		}
	}
	return nil
}

func applyOp(elements *model.Elements, op Op) error {
	key, err := elementKey(op.Path)
	if err != nil {
		return err
	}
	switch op.Op {
	case OpAdd, OpReplace:
		if len(op.Value) == 0 {
			return fmt.Errorf("%s %s: missing value", op.Op, op.Path)
		}
		el, err := model.DecodeElement(op.Value)
		if err != nil {
			return fmt.Errorf("%s %s: %w", op.Op, op.Path, err)
		}
		if op.Op == OpReplace {
			if _, ok := elements.Get(key); !ok {
				return fmt.Errorf("replace %s: no such element", op.Path)
			}
		}
		elements.Set(key, el)
	case OpRemove:
		elements.Delete(key)
	default:
		return fmt.Errorf("unsupported op %q", op.Op)
	}
	return nil
}

func elementKey(path string) (string, error) {
	if !strings.HasPrefix(path, elementsRoot) || len(path) == len(elementsRoot) {
		return "", fmt.Errorf("unsupported path %q", path)
	}
	key := path[len(elementsRoot):]
	if strings.Contains(key, "/") {
		return "", fmt.Errorf("unsupported path %q", path)
	}
	key = strings.ReplaceAll(key, "~1", "/")
	return strings.ReplaceAll(key, "~0", "~"), nil
}
