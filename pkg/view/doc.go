// Package view is a rendering facade over a pongo2 engine. A View keeps three
// string keyed registries: disks (named roots of view files), components
// (in-memory template sources) and global properties. It also keeps a fourth
// one for custom tags. Lookups and renders are checked against these
// registries before they are dispatched to the engine.
//
// Names follow the "disk::path/inside" convention. A name without "::"
// addresses the default disk, and component names are matched as written:
//
//	v := view.MustNew()
//	v.CreateViewDisk("resources/views")
//	v.CreateViewDisk("admin", "resources/views/admin")
//	_ = v.CreateComponent("ui.button", `<button>{{ content }}</button>`)
//
//	html, err := v.Render(ctx, "admin::users/list", map[string]any{"users": users})
package view
