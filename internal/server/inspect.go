package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// inspect answers the inspect command: introspection of what the analyzer
// currently knows about a source location. show selects the view
// ("type", "attrs" or "definition"); raw dumps the underlying records.
func (s *Server) inspect(show, location string, raw bool) (string, error) {
	path, line, err := parseLocation(location)
	if err != nil {
		return "", err
	}
	moduleID := ""
	for _, id := range s.engine.Graph.Modules() {
		node, _ := s.engine.Graph.Get(id)
		if node != nil && node.Path == path {
			moduleID = id
			break
		}
	}
	if moduleID == "" {
		return "", fmt.Errorf("unknown module for file %q", path)
	}
	node, _ := s.engine.Graph.Get(moduleID)

	switch show {
	case "type", "":
		names := make([]string, 0, len(node.TargetSigs))
		for name := range node.TargetSigs {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			fmt.Fprintf(&b, "%s: %s\n", name, node.TargetSigs[name])
		}
		if raw {
			b.WriteString(spew.Sdump(node.TargetSigs))
		}
		if b.Len() == 0 {
			return fmt.Sprintf("No known types at %s:%d\n", path, line), nil
		}
		return b.String(), nil
	case "attrs":
		names := make([]string, 0, len(node.Symbols))
		for name := range node.Symbols {
			names = append(names, name)
		}
		sort.Strings(names)
		if raw {
			return spew.Sdump(node.Symbols), nil
		}
		return strings.Join(names, "\n") + "\n", nil
	case "definition":
		if raw {
			return spew.Sdump(node), nil
		}
		return fmt.Sprintf("%s (defined in %s)\n", moduleID, node.Path), nil
	default:
		return "", fmt.Errorf("unknown inspection %q", show)
	}
}

// parseLocation splits "path:line" or "path:line:col" apart.
func parseLocation(location string) (string, int, error) {
	i := strings.LastIndex(location, ":")
	if i < 0 {
		return location, 1, nil
	}
	rest := location[i+1:]
	if n, err := strconv.Atoi(rest); err == nil {
		// Could still be path:line:col; try to split once more.
		if j := strings.LastIndex(location[:i], ":"); j >= 0 {
			if m, err := strconv.Atoi(location[j+1 : i]); err == nil {
				return location[:j], m, nil
			}
		}
		return location[:i], n, nil
	}
	return "", 0, fmt.Errorf("invalid location %q; expected path:line[:col]", location)
}
