package template

import (
	"context"
	"log"

	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/settings"
)

// Group pairs an inspection group key with its display label.
type Group struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// legacyGroups is the static legacy group configuration. Its order defines
// the display order of any group that matches by key.
var legacyGroups = []Group{
	{Key: "exterior", Label: "Exterior"},
	{Key: "interior", Label: "Interior"},
	{Key: "seguranca", Label: "Segurança"},
	{Key: "mecanica", Label: "Mecânica"},
}

// legacyItems is the built-in fallback item set. Keys intentionally carry no
// "obs_" prefix: their absence is what marks stored inspection mappings as
// legacy.
var legacyItems = []model.TemplateItem{
	{Key: "pneus", Label: "Pneus calibrados", Column: 1, GroupKey: "exterior", Position: 1, DefaultChecked: true},
	{Key: "farois", Label: "Faróis e lanternas", Column: 1, GroupKey: "exterior", Position: 2, DefaultChecked: true},
	{Key: "lataria", Label: "Lataria sem avarias", Column: 1, GroupKey: "exterior", Position: 3},
	{Key: "retrovisores", Label: "Retrovisores", Column: 1, GroupKey: "exterior", Position: 4, DefaultChecked: true},
	{Key: "limpeza", Label: "Limpeza interna", Column: 2, GroupKey: "interior", Position: 5},
	{Key: "painel", Label: "Painel sem alertas", Column: 2, GroupKey: "interior", Position: 6, DefaultChecked: true},
	{Key: "cintos", Label: "Cintos de segurança", Column: 1, GroupKey: "seguranca", Position: 7, DefaultChecked: true},
	{Key: "triangulo", Label: "Triângulo e macaco", Column: 1, GroupKey: "seguranca", Position: 8},
	{Key: "extintor", Label: "Extintor no prazo", Column: 1, GroupKey: "seguranca", Position: 9},
	{Key: "estepe", Label: "Estepe calibrado", Column: 2, GroupKey: "seguranca", Position: 10},
	{Key: "oleo", Label: "Nível de óleo", Column: 2, GroupKey: "mecanica", Position: 11, DefaultChecked: true},
	{Key: "agua", Label: "Água do radiador", Column: 2, GroupKey: "mecanica", Position: 12},
	{Key: "freios", Label: "Freios respondendo", Column: 2, GroupKey: "mecanica", Position: 13, DefaultChecked: true},
}

// BuiltinLegacyItems returns a copy of the static fallback item set.
func BuiltinLegacyItems() []model.TemplateItem {
	out := make([]model.TemplateItem, len(legacyItems))
	copy(out, legacyItems)
	return out
}

// legacyGroupIndex returns the position of key in the static legacy group
// ordering, or -1.
func legacyGroupIndex(key string) int {
	for i, g := range legacyGroups {
		if g.Key == key {
			return i
		}
	}
	return -1
}

// legacyGroupLabel returns the static label for key, or "" when no static
// group matches.
func legacyGroupLabel(key string) string {
	for _, g := range legacyGroups {
		if g.Key == key {
			return g.Label
		}
	}
	return ""
}

// legacyFallback resolves the legacy item set: the remote settings override
// when available, the built-in list otherwise. It never fails.
func legacyFallback(ctx context.Context, source settings.Source) []model.TemplateItem {
	if source == nil {
		return BuiltinLegacyItems()
	}

	remote, err := source.LegacyItems(ctx)
	if err != nil || len(remote) == 0 {
		if err != nil {
			log.Printf("Legacy settings unavailable, using built-in items: %v", err)
		}
		return BuiltinLegacyItems()
	}

	items := make([]model.TemplateItem, 0, len(remote))
	for i, d := range remote {
		column := d.Column
		if column != 1 && column != 2 {
			column = 1
		}
		position := d.Position
		if position == 0 {
			position = i + 1
		}
		items = append(items, model.TemplateItem{
			Key:            d.Key,
			Label:          d.Label,
			Column:         column,
			GroupKey:       d.Group,
			Position:       position,
			DefaultChecked: d.DefaultChecked,
		})
	}
	return items
}
