package service

import (
	"go-newsroom/internal/data"
	"go-newsroom/internal/slug"
)

// KindSpec describes how one content kind behaves.
type KindSpec struct {
	Kind          data.Kind
	Path          string
	SlugMode      slug.Mode
	CategoryScope data.CategoryScope
	DefaultLimit  int
	// Owned kinds record their author; authors may only change their own items.
	Owned       bool
	CountsViews bool
	ManualOrder bool
}

// Kinds lists every content kind served by the API.
var Kinds = []KindSpec{
	{Kind: data.KindArticle, Path: "/articles", SlugMode: slug.Strict, CategoryScope: data.ScopeEditorial, DefaultLimit: 10, Owned: true, CountsViews: true},
	{Kind: data.KindProduct, Path: "/products", SlugMode: slug.Permissive, CategoryScope: data.ScopeCatalog, DefaultLimit: 12, CountsViews: true},
	{Kind: data.KindMedia, Path: "/media", SlugMode: slug.Strict, CategoryScope: data.ScopeEditorial, DefaultLimit: 12, Owned: true, CountsViews: true},
	{Kind: data.KindEvent, Path: "/events", SlugMode: slug.Strict, CategoryScope: data.ScopeEditorial, DefaultLimit: 10, Owned: true},
	{Kind: data.KindTeam, Path: "/team", SlugMode: slug.Permissive, CategoryScope: data.ScopeEditorial, DefaultLimit: 20, ManualOrder: true},
}

// KindSpecFor looks up the descriptor of kind.
func KindSpecFor(kind data.Kind) (KindSpec, bool) {
	for _, k := range Kinds {
		if k.Kind == kind {
			return k, true
		}
	}
	return KindSpec{}, false
}

func (k KindSpec) order() data.Order {
	if k.ManualOrder {
		return data.OrderManual
	}
	return data.OrderRecency
}
