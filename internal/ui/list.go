package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/karaoke/internal/models"
)

var _ list.Item = resultItem{}

// resultItem wraps [models.SearchResult] to implement [list.Item].
type resultItem struct {
	result models.SearchResult
}

func (i resultItem) FilterValue() string { return i.result.Title }
func (i resultItem) Title() string       { return i.result.Title }
func (i resultItem) Description() string {
	source := "local"
	if i.result.IsRemote() {
		source = "youtube"
	}
	desc := fmt.Sprintf("[%s] %s", source, i.result.Artist)
	if i.result.Type != "" && i.result.Type != "youtube" {
		desc = fmt.Sprintf("%s • %s", desc, i.result.Type)
	}
	return desc
}

func toItems(results []models.SearchResult) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{result: r}
	}
	return items
}
