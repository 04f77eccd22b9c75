package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR}. Defaults such as ${VAR:-x} are deliberately not recognized.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// ExpandEnvVars substitutes every ${VAR} in s in a single pass. Substituted values are
// not scanned again. The first unset variable aborts expansion.
func ExpandEnvVars(s string, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var missing string
	out := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if missing != "" {
			return match
		}
		name := envVarPattern.FindStringSubmatch(match)[1]
		val, ok := lookup(name)
		if !ok {
			missing = name
			return match
		}
		return val
	})
	if missing != "" {
		return "", &UnresolvedEnvError{Name: missing}
	}
	return out, nil
}

// interpolateNode expands placeholders in every string scalar under n, in document order.
// Mapping keys are left alone. Substituted scalars are tagged !!str so the value is kept
// exactly as the environment holds it, and each one is recorded in substituted.
func interpolateNode(n *yaml.Node, path string, lookup LookupFunc, substituted map[*yaml.Node]string) error {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			if err := interpolateNode(c, path, lookup, substituted); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := interpolateNode(c, joinPath(path, strconv.Itoa(i)), lookup, substituted); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if err := interpolateNode(val, joinPath(path, key.Value), lookup, substituted); err != nil {
				return err
			}
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" || !envVarPattern.MatchString(n.Value) {
			return nil
		}
		expanded, err := ExpandEnvVars(n.Value, lookup)
		if err != nil {
			if uerr, ok := err.(*UnresolvedEnvError); ok {
				uerr.Path = path
			}
			return err
		}
		n.Value = expanded
		n.Tag = "!!str"
		substituted[n] = path
	}
	return nil
}

type scalarKind int

const (
	kindInt scalarKind = iota
	kindFloat
	kindBool
)

// typedFields lists the settings that are not strings. "*" matches any mapping key.
// llm.timeout is absent: durations decode from strings as they are.
var typedFields = []struct {
	path []string
	kind scalarKind
}{
	{[]string{"completion", "*", "temperature"}, kindFloat},
	{[]string{"completion", "*", "max_tokens"}, kindInt},
	{[]string{"reply", "max_concurrency"}, kindInt},
	{[]string{"reply", "strip_mentions"}, kindBool},
}

// coerceTypedFields parses substituted values of typed settings with strconv, so an
// environment value is read as a plain decimal number or boolean and nothing else.
func coerceTypedFields(root *yaml.Node, substituted map[*yaml.Node]string) error {
	if len(substituted) == 0 {
		return nil
	}
	for _, f := range typedFields {
		for _, n := range matchNodes(root, f.path) {
			path, ok := substituted[n]
			if !ok {
				continue
			}
			if err := coerceScalar(n, f.kind); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
			}
		}
	}
	return nil
}

func coerceScalar(n *yaml.Node, kind scalarKind) error {
	raw := strings.TrimSpace(n.Value)
	switch kind {
	case kindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		n.Tag, n.Value = "!!int", strconv.Itoa(v)
	case kindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%q is not a finite number", raw)
		}
		n.Tag, n.Value = "!!float", strconv.FormatFloat(v, 'f', -1, 64)
	case kindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v)
	}
	return nil
}

// matchNodes returns the values reached by following keys from n.
func matchNodes(n *yaml.Node, keys []string) []*yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n == nil {
		return nil
	}
	if len(keys) == 0 {
		return []*yaml.Node{n}
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	var out []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		if keys[0] == "*" || n.Content[i].Value == keys[0] {
			out = append(out, matchNodes(n.Content[i+1], keys[1:])...)
		}
	}
	return out
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
