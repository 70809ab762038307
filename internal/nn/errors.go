package nn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// ShapeMismatch records one stored tensor whose shape disagrees with the
// shape the freshly constructed architecture expects.
type ShapeMismatch struct {
	Name string       // Parameter name, e.g. "hidden_layers.0.weight"
	Want tensor.Shape // Shape expected by the target model
	Got  tensor.Shape // Shape found in the state dict
}

func (m ShapeMismatch) String() string {
	return fmt.Sprintf("%s: expected %v, got %v", m.Name, m.Want, m.Got)
}

// ArchitectureMismatchError reports every tensor whose stored shape differs
// from the target model. The list is never truncated and is ordered by the
// model's parameter order.
type ArchitectureMismatchError struct {
	Mismatches []ShapeMismatch
}

func (e *ArchitectureMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "architecture mismatch: %d tensor(s) differ in shape:", len(e.Mismatches))
	for _, m := range e.Mismatches {
		b.WriteString("\n  ")
		b.WriteString(m.String())
	}
	return b.String()
}

// MissingKeysError reports parameter names the target model expects that
// the state dict does not contain.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing keys in state dict: %s", strings.Join(e.Keys, ", "))
}

// UnexpectedKeysError reports state dict entries the target model has no
// parameter for. Raised only under strict key matching.
type UnexpectedKeysError struct {
	Keys []string
}

func (e *UnexpectedKeysError) Error() string {
	return fmt.Sprintf("unexpected keys in state dict: %s", strings.Join(e.Keys, ", "))
}

func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
