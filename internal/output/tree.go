package output

import (
	"strings"

	"github.com/temirov/ingest/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix      = "/"
	symlinkArrow         = " -> "
	binaryAnnotation     = " [binary]"
	tooLargeAnnotation   = " [skipped: too large]"
	totalAnnotation      = " [skipped: total limit]"
	unreadableAnnotation = " [skipped: unreadable]"
)

// RenderTree draws entries, given in walk order, below a root line. Depth drives indentation;
// the walk order is kept as is.
func RenderTree(rootName string, entries []types.ListingEntry) string {
	var builder strings.Builder
	builder.WriteString(rootName + directorySuffix + "\n")

	lastFlags := lastAmongSiblings(entries)
	var paddings []string
	for index, listing := range entries {
		depth := listing.Entry.Depth
		if depth < 1 {
			depth = 1
		}
		if len(paddings) > depth-1 {
			paddings = paddings[:depth-1]
		}
		for len(paddings) < depth-1 {
			paddings = append(paddings, treeLastPadding)
		}

		connector := treeBranchConnector
		padding := treeBranchPadding
		if lastFlags[index] {
			connector = treeLastConnector
			padding = treeLastPadding
		}
		builder.WriteString(strings.Join(paddings, ""))
		builder.WriteString(connector)
		builder.WriteString(entryLabel(listing))
		builder.WriteString("\n")
		paddings = append(paddings, padding)
	}
	return builder.String()
}

// lastAmongSiblings marks entries that have no later sibling, scanning from the end.
func lastAmongSiblings(entries []types.ListingEntry) []bool {
	flags := make([]bool, len(entries))
	laterSibling := map[int]bool{}
	for index := len(entries) - 1; index >= 0; index-- {
		depth := entries[index].Entry.Depth
		flags[index] = !laterSibling[depth]
		laterSibling[depth] = true
		for deeper := range laterSibling {
			if deeper > depth {
				delete(laterSibling, deeper)
			}
		}
	}
	return flags
}

func entryLabel(listing types.ListingEntry) string {
	entry := listing.Entry
	label := entry.Name
	switch entry.Kind {
	case types.EntryKindDirectory:
		label += directorySuffix
	case types.EntryKindSymlink:
		label += symlinkArrow + entry.LinkTarget
	}
	switch listing.Classification {
	case types.ClassificationBinary:
		label += binaryAnnotation
	case types.ClassificationSkippedTooLarge:
		label += tooLargeAnnotation
	case types.ClassificationSkippedTotalLimit:
		label += totalAnnotation
	case types.ClassificationSkippedUnreadable:
		label += unreadableAnnotation
	}
	return label
}
