// Package grouping partitions Operation Records into output folder groups.
// Group membership is a pure function of the record's path and the service
// name, so the partition is independent of processing order.
package grouping

import (
	"strings"

	"github.com/curaline/swagger2ts/internal/naming"
	"github.com/curaline/swagger2ts/internal/spec"
)

// Rule routes any path containing Match (case-insensitive substring, after
// parameter and version segments are dropped) into the named folder.
type Rule struct {
	Match  string
	Folder string
}

// DefaultRules reproduces the stock routing table.
func DefaultRules() []Rule {
	return []Rule{{Match: "therapist", Folder: "Therapist"}}
}

// EndpointGroup is a folder path plus the records assigned to it, in
// extraction order.
type EndpointGroup struct {
	Folder  []string
	Records []spec.OperationRecord
}

// FolderFor computes the folder path for a single path template.
func FolderFor(path, serviceName string, rules []Rule) []string {
	segs := naming.ResourceSegments(path)
	if len(segs) <= 1 {
		return []string{serviceName, "Root"}
	}
	for _, rule := range rules {
		match := strings.ToLower(rule.Match)
		if match == "" {
			continue
		}
		for _, seg := range segs {
			if strings.Contains(strings.ToLower(seg), match) {
				return []string{serviceName, rule.Folder}
			}
		}
	}
	first := naming.ToPascalCase(segs[0])
	if first == serviceName {
		return []string{serviceName}
	}
	return []string{serviceName, first}
}

// Group partitions records into endpoint groups keyed by folder path.
// Groups appear in order of first appearance; every record belongs to
// exactly one group.
func Group(records []spec.OperationRecord, serviceName string, rules []Rule) []EndpointGroup {
	var groups []EndpointGroup
	index := make(map[string]int)
	for _, rec := range records {
		folder := FolderFor(rec.Path, serviceName, rules)
		key := strings.Join(folder, "/")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, EndpointGroup{Folder: folder})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}
